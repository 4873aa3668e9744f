package application

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	// ImportedCategory is given to every imported project until it is curated by hand.
	ImportedCategory = "New Project"
	importDateLayout = "2006-01-02"
)

var (
	slugStripRegex = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaceRegex = regexp.MustCompile(`\s+`)
)

// ColumnMapping names the form-response columns the importer reads.
type ColumnMapping struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Images      []string `yaml:"images"`
}

// DefaultColumnMapping matches the project submission form.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		Title:       "project_title",
		Description: "project_description",
		Images:      []string{"img_1", "img_2", "img_3", "img_4", "img_5", "img_6", "img_7", "img_8"},
	}
}

// LoadColumnMapping reads a YAML mapping. Keys left out keep their defaults.
func LoadColumnMapping(path string) (ColumnMapping, error) {
	mapping := DefaultColumnMapping()

	raw, err := os.ReadFile(path)
	if err != nil {
		return mapping, fmt.Errorf("failed to read column mapping: %w", err)
	}

	if err := yaml.Unmarshal(raw, &mapping); err != nil {
		return mapping, fmt.Errorf("failed to parse column mapping %s: %w", path, err)
	}

	return mapping, nil
}

// SkippedRow is a submission that was not imported.
type SkippedRow struct {
	Line   int
	Reason string
}

type ImportReport struct {
	Added   []string
	Skipped []SkippedRow
}

type Importer struct {
	mapping ColumnMapping
	now     func() time.Time
}

func NewImporter(mapping ColumnMapping) *Importer {
	return &Importer{
		mapping: mapping,
		now:     time.Now,
	}
}

// Import reads form submissions from r and prepends a project to doc for every complete
// submission whose id is not already taken. Each new project goes to the front, so the
// last row of the file ends up first.
func (im *Importer) Import(ctx context.Context, r io.Reader, doc *domain.Document) (ImportReport, error) {
	var report ImportReport

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("failed to read header row: %w", err)
	}

	titleIdx := slices.Index(header, im.mapping.Title)
	descIdx := slices.Index(header, im.mapping.Description)
	if titleIdx < 0 || descIdx < 0 {
		return report, fmt.Errorf("required columns %q and %q not found in header", im.mapping.Title, im.mapping.Description)
	}

	imageIdx := make([]int, 0, len(im.mapping.Images))
	for _, col := range im.mapping.Images {
		if idx := slices.Index(header, col); idx >= 0 {
			imageIdx = append(imageIdx, idx)
		}
	}

	taken := make(map[string]struct{}, len(doc.Projects))
	for _, p := range doc.Projects {
		taken[p.ID] = struct{}{}
	}

	date := im.now().Format(importDateLayout)
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("failed to read submissions: %w", err)
		}
		line, _ := reader.FieldPos(0)

		title := field(row, titleIdx)
		description := field(row, descIdx)
		if title == "" || description == "" {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: "missing title or description"})
			continue
		}

		var images []domain.ImageReference
		for _, idx := range imageIdx {
			if v := field(row, idx); v != "" {
				images = append(images, domain.NormalizeExport(v))
			}
		}
		if len(images) == 0 {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: "no images"})
			continue
		}

		id := Slugify(title)
		if id == "" {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: "title has no usable characters"})
			continue
		}
		if _, exists := taken[id]; exists {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: fmt.Sprintf("project %q already exists", id)})
			continue
		}
		taken[id] = struct{}{}

		project := domain.Project{
			ID:          id,
			Title:       title,
			Description: description,
			Category:    ImportedCategory,
			Images:      images,
			Thumbnail:   domain.NormalizeThumbnail(string(images[0]), domain.GridSizeHint),
			Date:        date,
		}
		doc.Projects = slices.Insert(doc.Projects, 0, project)
		report.Added = append(report.Added, id)

		log.Info().Str("project", id).Int("images", len(images)).Msg("Imported project")
	}

	return report, nil
}

// Slugify derives a project id from a title: lowercased, punctuation removed and
// whitespace runs replaced by a hyphen.
func Slugify(title string) string {
	s := slugStripRegex.ReplaceAllString(strings.ToLower(title), "")
	return slugSpaceRegex.ReplaceAllString(strings.TrimSpace(s), "-")
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
