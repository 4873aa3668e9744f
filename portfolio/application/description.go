package application

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// projectLinkTransformer points bare links at project pages and Drive image links at
// the export form, so descriptions can be written with share links and project ids.
type projectLinkTransformer struct {
	projectPath string
}

func (t *projectLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Image:
			v.Destination = []byte(domain.NormalizeExport(string(v.Destination)))
		case *ast.Link:
			dest := string(v.Destination)
			if isProjectLink(dest) {
				v.Destination = []byte(t.projectPath + strings.TrimPrefix(dest, "./"))
			}
		}

		return ast.WalkContinue, nil
	})
}

// isProjectLink reports whether dest is a bare project id such as "labirinto" or "./labirinto".
func isProjectLink(dest string) bool {
	dest = strings.TrimPrefix(dest, "./")
	if dest == "" {
		return false
	}
	if strings.ContainsAny(dest, ":/#?.") {
		return false
	}
	return true
}

// DescriptionRenderer turns a project description into HTML for the detail view.
type DescriptionRenderer interface {
	Render(description string) (template.HTML, error)
}

type DescriptionRendererImpl struct {
	renderer goldmark.Markdown
}

// NewDescriptionRenderer creates a renderer that accepts Markdown and passes inline HTML
// through unchanged. Descriptions come from the portfolio owner's document.
func NewDescriptionRenderer(projectPath string) DescriptionRenderer {
	renderer := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&projectLinkTransformer{projectPath: projectPath}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithUnsafe(),
		),
	)

	return &DescriptionRendererImpl{
		renderer: renderer,
	}
}

func (r *DescriptionRendererImpl) Render(description string) (template.HTML, error) {
	if strings.TrimSpace(description) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := r.renderer.Convert([]byte(description), &buf); err != nil {
		return "", fmt.Errorf("failed to render description: %w", err)
	}

	return template.HTML(buf.String()), nil
}
