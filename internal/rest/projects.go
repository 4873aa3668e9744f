package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marcolomele/makeup-portfolio/api"
	"github.com/marcolomele/makeup-portfolio/portfolio/application"
	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/marcolomele/makeup-portfolio/portfolio/resolver"
	"github.com/rs/zerolog/log"
)

func (a *Api) GetProjects(c *gin.Context) {
	projects, err := a.store.FilterByCategory(c.Request.Context(), c.Query("category"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	summaries := make([]api.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, toProjectSummary(p))
	}
	c.JSON(http.StatusOK, summaries)
}

func (a *Api) GetProject(c *gin.Context) {
	project, err := a.store.GetProject(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProject(*project))
}

// GetProjectImages resolves the project's images and reports their state once they
// settle or the render wait runs out, whichever comes first. Images still pending at that
// point keep resolving in the background and are recorded once they settle.
func (a *Api) GetProjectImages(c *gin.Context) {
	ctx := c.Request.Context()

	gallery, err := a.gallery.ResolveProject(ctx, c.Param("projectId"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	a.waitForImages(ctx, gallery.Images)

	images := make([]api.ResolvedImage, 0, len(gallery.Images))
	for _, h := range gallery.Images {
		images = append(images, toResolvedImage(h.Result()))
	}
	c.JSON(http.StatusOK, images)
}

func (a *Api) GetCategories(c *gin.Context) {
	categories, err := a.store.Categories(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, categories)
}

func (a *Api) GetResolutions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, api.Error{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	fallbacksOnly := c.Query("fallbacks") == "true"

	records, err := a.gallery.RecentResolutions(c.Request.Context(), limit, fallbacksOnly)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]api.Resolution, 0, len(records))
	for _, r := range records {
		out = append(out, toResolution(r))
	}
	c.JSON(http.StatusOK, out)
}

func (a *Api) waitForImages(ctx context.Context, handles []*resolver.Handle) {
	waitCtx, cancel := context.WithTimeout(ctx, a.renderWait)
	defer cancel()

	if err := application.WaitAll(waitCtx, handles); err != nil {
		log.Debug().Err(err).Int("images", len(handles)).Msg("Responding before every image settled")
	}
}

func abortWithError(c *gin.Context, err error) {
	if errors.Is(err, application.ErrProjectNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, api.Error{Error: err.Error()})
		return
	}

	c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, api.Error{Error: "internal server error"})
}

func toProjectSummary(p domain.Project) api.ProjectSummary {
	return api.ProjectSummary{
		ID:        p.ID,
		Title:     p.Title,
		Category:  p.Category,
		Thumbnail: string(p.ThumbnailRef()),
		Date:      p.Date,
	}
}

func toProject(p domain.Project) api.Project {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, string(img))
	}
	return api.Project{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Images:      images,
		Thumbnail:   string(p.ThumbnailRef()),
		Date:        p.Date,
	}
}

func toResolvedImage(r resolver.Result) api.ResolvedImage {
	out := api.ResolvedImage{
		ElementID: r.ElementID,
		Alt:       r.Alt,
		Original:  string(r.Original),
		Source:    string(r.Source),
		Status:    string(r.Status),
		Outcome:   string(r.Outcome),
		Rewrites:  r.Rewrites,
		Style:     r.Visual.Style(),
	}
	if r.LastErr != nil {
		out.Error = r.LastErr.Error()
	}
	return out
}

func toResolution(r *domain.Resolution) api.Resolution {
	return api.Resolution{
		ElementID:  r.ElementID,
		ProjectID:  r.ProjectID,
		Original:   string(r.Original),
		Final:      string(r.Final),
		Status:     r.Status,
		Outcome:    r.Outcome,
		Rewrites:   r.Rewrites,
		LastError:  r.LastError,
		ResolvedAt: r.ResolvedAt.UTC().Format(time.RFC3339),
	}
}
