package application

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{name: "Simple title", title: "Body Painting", expected: "body-painting"},
		{name: "Punctuation removed", title: "SFX: Final Exam!", expected: "sfx-final-exam"},
		{name: "Whitespace runs collapse", title: "  Il   Labirinto \t Della Mente ", expected: "il-labirinto-della-mente"},
		{name: "Hyphens kept", title: "Pop-Art Shoot", expected: "pop-art-shoot"},
		{name: "Digits kept", title: "Look 2024", expected: "look-2024"},
		{name: "Nothing usable", title: "!!!", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Slugify(tt.title)
			if result != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, result, tt.expected)
			}
		})
	}
}

func newTestImporter() *Importer {
	im := NewImporter(DefaultColumnMapping())
	im.now = func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }
	return im
}

func TestImporter_Import(t *testing.T) {
	csvData := strings.Join([]string{
		"Timestamp,project_title,project_description,img_1,img_2,img_3",
		"2025-03-10,Bridal Glow,Soft bridal makeup.,https://drive.google.com/open?id=AAA,https://drive.google.com/file/d/BBB/view,",
		"2025-03-11,Night Out,Smoky eyes.,https://drive.google.com/uc?id=CCC,,",
	}, "\n")

	doc := &domain.Document{Projects: []domain.Project{{ID: "existing", Title: "Existing"}}}

	report, err := newTestImporter().Import(context.Background(), strings.NewReader(csvData), doc)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if diff := cmp.Diff([]string{"bridal-glow", "night-out"}, report.Added); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}
	if len(report.Skipped) != 0 {
		t.Errorf("unexpected skipped rows: %+v", report.Skipped)
	}

	want := []domain.Project{
		{
			ID:          "night-out",
			Title:       "Night Out",
			Description: "Smoky eyes.",
			Category:    ImportedCategory,
			Images:      []domain.ImageReference{"https://drive.google.com/uc?export=view&id=CCC"},
			Thumbnail:   "https://drive.google.com/thumbnail?id=CCC&sz=w400",
			Date:        "2025-03-14",
		},
		{
			ID:          "bridal-glow",
			Title:       "Bridal Glow",
			Description: "Soft bridal makeup.",
			Category:    ImportedCategory,
			Images: []domain.ImageReference{
				"https://drive.google.com/uc?export=view&id=AAA",
				"https://drive.google.com/uc?export=view&id=BBB",
			},
			Thumbnail: "https://drive.google.com/thumbnail?id=AAA&sz=w400",
			Date:      "2025-03-14",
		},
		{ID: "existing", Title: "Existing"},
	}
	if diff := cmp.Diff(want, doc.Projects); diff != "" {
		t.Errorf("Projects mismatch (-want +got):\n%s", diff)
	}
}

func TestImporter_SkipsIncompleteAndDuplicateRows(t *testing.T) {
	csvData := strings.Join([]string{
		"project_title,project_description,img_1",
		",No title,https://drive.google.com/open?id=A",
		"No description,,https://drive.google.com/open?id=B",
		"No Images,Has text,",
		"Existing,Already there,https://drive.google.com/open?id=C",
		"Twice,First,https://drive.google.com/open?id=D",
		"twice,Second,https://drive.google.com/open?id=E",
		"External,Not on Drive,https://example.com/look.jpg",
	}, "\n")

	doc := &domain.Document{Projects: []domain.Project{{ID: "existing"}}}

	report, err := newTestImporter().Import(context.Background(), strings.NewReader(csvData), doc)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if diff := cmp.Diff([]string{"twice", "external"}, report.Added); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}

	var lines []int
	for _, s := range report.Skipped {
		lines = append(lines, s.Line)
	}
	if diff := cmp.Diff([]int{2, 3, 4, 5, 7}, lines); diff != "" {
		t.Errorf("Skipped lines mismatch (-want +got):\n%s", diff)
	}

	external := doc.Projects[0]
	if external.Images[0] != "https://example.com/look.jpg" || external.Thumbnail != "https://example.com/look.jpg" {
		t.Errorf("non-Drive links should be kept as given, got %+v", external)
	}
}

func TestImporter_MissingColumns(t *testing.T) {
	doc := &domain.Document{}
	_, err := newTestImporter().Import(context.Background(), strings.NewReader("title,description\nA,B\n"), doc)
	if err == nil {
		t.Fatal("expected an error for a header without the mapped columns")
	}
}

func TestImporter_EmptyInput(t *testing.T) {
	doc := &domain.Document{}
	report, err := newTestImporter().Import(context.Background(), strings.NewReader(""), doc)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(report.Added) != 0 || len(doc.Projects) != 0 {
		t.Errorf("expected nothing imported, got %+v", report)
	}
}

func TestLoadColumnMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.yaml")
	content := "title: Nome progetto\nimages:\n  - Foto 1\n  - Foto 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write mapping: %v", err)
	}

	mapping, err := LoadColumnMapping(path)
	if err != nil {
		t.Fatalf("LoadColumnMapping failed: %v", err)
	}

	want := ColumnMapping{
		Title:       "Nome progetto",
		Description: "project_description",
		Images:      []string{"Foto 1", "Foto 2"},
	}
	if diff := cmp.Diff(want, mapping); diff != "" {
		t.Errorf("mapping mismatch (-want +got):\n%s", diff)
	}

	csvData := "Nome progetto,project_description,Foto 1,Foto 2\nLook,Text,https://drive.google.com/open?id=Z,\n"
	doc := &domain.Document{}
	report, err := NewImporter(mapping).Import(context.Background(), strings.NewReader(csvData), doc)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(report.Added) != 1 || doc.Projects[0].ID != "look" {
		t.Errorf("expected project 'look' imported, got %+v", doc.Projects)
	}
}

func TestLoadColumnMapping_Missing(t *testing.T) {
	_, err := LoadColumnMapping(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
