package application

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/rs/zerolog/log"
)

// ErrMalformedDocument is returned when a document is not valid JSON or has no projects list.
var ErrMalformedDocument = errors.New("malformed portfolio document")

//go:embed sample/portfolio.json
var sampleDocument []byte

// SampleDocument returns the built-in portfolio served when no other document is available.
func SampleDocument() *domain.Document {
	doc, err := DecodeDocument(sampleDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded sample document is invalid: %v", err))
	}
	return doc
}

// DecodeDocument parses raw into a document. Projects without an id are dropped.
func DecodeDocument(raw []byte) (*domain.Document, error) {
	var wire struct {
		Projects *[]domain.Project `json:"projects"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if wire.Projects == nil {
		return nil, fmt.Errorf("%w: missing projects", ErrMalformedDocument)
	}

	projects := make([]domain.Project, 0, len(*wire.Projects))
	for i, p := range *wire.Projects {
		if p.ID == "" {
			log.Warn().Int("index", i).Str("title", p.Title).Msg("Dropping project without an id")
			continue
		}
		projects = append(projects, p)
	}

	return &domain.Document{Projects: projects}, nil
}

// EncodeDocument renders doc the way the document is stored: two-space indented,
// with HTML left unescaped.
func EncodeDocument(doc *domain.Document) ([]byte, error) {
	if doc.Projects == nil {
		doc = &domain.Document{Projects: []domain.Project{}}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return buf.Bytes(), nil
}
