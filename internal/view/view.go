// Package view renders the portfolio pages from resolved image handles.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/marcolomele/makeup-portfolio/portfolio/resolver"
)

//go:embed templates/*.html
var templateFS embed.FS

// Image is one image element as drawn on a page.
type Image struct {
	ElementID string
	Src       string
	Alt       string
	Style     template.CSS
	Status    resolver.Status
	Pending   bool
}

// ImageFromResult draws the element in its current state: the current source, the
// matching visual style and a spinner while it is still pending.
func ImageFromResult(res resolver.Result) Image {
	return Image{
		ElementID: res.ElementID,
		Src:       string(res.Source),
		Alt:       res.Alt,
		Style:     template.CSS(res.Visual.Style()),
		Status:    res.Status,
		Pending:   res.Status == resolver.StatusPending,
	}
}

// GridCell is one project tile.
type GridCell struct {
	ID       string
	Title    string
	Category string
	Image    Image
}

type GridPage struct {
	Categories []string
	// Active is the lowercased category filter, "all" when unfiltered.
	Active string
	Items  []GridCell
}

type ProjectPage struct {
	Title       string
	Description template.HTML
	Images      []Image
	NotFound    bool
}

// NotFoundPage is shown for unknown project ids.
func NotFoundPage() ProjectPage {
	return ProjectPage{Title: "Project Not Found", NotFound: true}
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"lower": strings.ToLower,
		"inc":   func(i int) int { return i + 1 },
	}

	tmpl, err := template.New("view").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) RenderGrid(w io.Writer, page GridPage) error {
	if page.Active == "" {
		page.Active = "all"
	}
	page.Active = strings.ToLower(page.Active)
	return r.execute(w, "grid", page)
}

func (r *Renderer) RenderProject(w io.Writer, page ProjectPage) error {
	return r.execute(w, "project", page)
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}
