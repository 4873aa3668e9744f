package rest

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marcolomele/makeup-portfolio/internal/view"
	"github.com/marcolomele/makeup-portfolio/portfolio/application"
	"github.com/marcolomele/makeup-portfolio/portfolio/resolver"
)

func (a *Api) GetGridPage(c *gin.Context) {
	ctx := c.Request.Context()

	category := c.Query("category")
	items, err := a.gallery.ResolveGrid(ctx, category)
	if err != nil {
		c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	categories, err := a.store.Categories(ctx)
	if err != nil {
		c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	handles := make([]*resolver.Handle, len(items))
	for i, item := range items {
		handles[i] = item.Thumbnail
	}
	a.waitForImages(ctx, handles)

	page := view.GridPage{Categories: categories, Active: category}
	for _, item := range items {
		page.Items = append(page.Items, view.GridCell{
			ID:       item.Project.ID,
			Title:    item.Project.Title,
			Category: item.Project.Category,
			Image:    view.ImageFromResult(item.Thumbnail.Result()),
		})
	}

	a.renderHTML(c, http.StatusOK, func(buf *bytes.Buffer) error {
		return a.renderer.RenderGrid(buf, page)
	})
}

func (a *Api) GetProjectPage(c *gin.Context) {
	ctx := c.Request.Context()

	gallery, err := a.gallery.ResolveProject(ctx, c.Param("projectId"))
	if errors.Is(err, application.ErrProjectNotFound) {
		a.renderHTML(c, http.StatusNotFound, func(buf *bytes.Buffer) error {
			return a.renderer.RenderProject(buf, view.NotFoundPage())
		})
		return
	}
	if err != nil {
		c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	a.waitForImages(ctx, gallery.Images)

	page := view.ProjectPage{
		Title:       gallery.Project.Title,
		Description: gallery.Description,
	}
	for _, h := range gallery.Images {
		page.Images = append(page.Images, view.ImageFromResult(h.Result()))
	}

	a.renderHTML(c, http.StatusOK, func(buf *bytes.Buffer) error {
		return a.renderer.RenderProject(buf, page)
	})
}

// renderHTML renders into a buffer first so a template error still produces a clean 500.
func (a *Api) renderHTML(c *gin.Context, status int, render func(buf *bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
