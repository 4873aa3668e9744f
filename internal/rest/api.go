package rest

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marcolomele/makeup-portfolio/internal/view"
	"github.com/marcolomele/makeup-portfolio/portfolio/application"
)

// Api serves the portfolio pages and the JSON API.
type Api struct {
	store      *application.ProjectStore
	gallery    *application.GalleryService
	renderer   *view.Renderer
	renderWait time.Duration
}

// NewApi registers every route on router. renderWait bounds how long a request waits
// for its images to settle before responding with their current state.
func NewApi(router *gin.Engine, store *application.ProjectStore, gallery *application.GalleryService, renderer *view.Renderer, renderWait time.Duration) *Api {
	a := &Api{
		store:      store,
		gallery:    gallery,
		renderer:   renderer,
		renderWait: renderWait,
	}

	router.GET("/", a.GetGridPage)
	router.GET("/projects/:projectId", a.GetProjectPage)

	projectsV1 := router.Group("projects/v1")
	{
		projectsV1.GET("/", a.GetProjects)
		projectsV1.GET("/:projectId", a.GetProject)
		projectsV1.GET("/:projectId/images", a.GetProjectImages)
	}

	categoriesV1 := router.Group("categories/v1")
	{
		categoriesV1.GET("/", a.GetCategories)
	}

	diagnosticsV1 := router.Group("diagnostics/v1")
	{
		diagnosticsV1.GET("/resolutions", a.GetResolutions)
	}

	return a
}
