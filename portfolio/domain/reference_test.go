package domain

import (
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		ref      ImageReference
		expected Form
	}{
		{
			name:     "Thumbnail with size",
			ref:      "https://drive.google.com/thumbnail?id=1s8txbOxSuKQJwIsIaLkPE5CwZoddwCTI&sz=w400",
			expected: FormThumbnail,
		},
		{
			name:     "Thumbnail without size",
			ref:      "thumbnail?id=ABC",
			expected: FormThumbnail,
		},
		{
			name:     "Export form",
			ref:      "https://drive.google.com/uc?export=view&id=19zsvXcumSKvm8V-ru9WJF5Oa6oD-a11h",
			expected: FormExport,
		},
		{
			name:     "Bare export form",
			ref:      "uc?export=view&id=XYZ",
			expected: FormExport,
		},
		{
			name:     "Third party host",
			ref:      "https://images.example.com/look.jpg",
			expected: FormUnrecognized,
		},
		{
			name:     "Drive file link is not a display form",
			ref:      "https://drive.google.com/file/d/ABC/view",
			expected: FormUnrecognized,
		},
		{
			name:     "Empty",
			ref:      "",
			expected: FormUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ref); got != tt.expected {
				t.Errorf("Classify(%q) = %v, want %v", tt.ref, got, tt.expected)
			}
		})
	}
}

func TestRewrite(t *testing.T) {
	tests := []struct {
		name     string
		ref      ImageReference
		expected ImageReference
		ok       bool
	}{
		{
			name:     "Thumbnail to export drops size",
			ref:      "thumbnail?id=ABC&sz=w400",
			expected: "uc?export=view&id=ABC",
			ok:       true,
		},
		{
			name:     "Thumbnail with host keeps host",
			ref:      "https://drive.google.com/thumbnail?id=ABC&sz=w800",
			expected: "https://drive.google.com/uc?export=view&id=ABC",
			ok:       true,
		},
		{
			name:     "Thumbnail without size",
			ref:      "https://drive.google.com/thumbnail?id=ABC",
			expected: "https://drive.google.com/uc?export=view&id=ABC",
			ok:       true,
		},
		{
			name:     "Export to thumbnail appends size",
			ref:      "uc?export=view&id=XYZ",
			expected: "thumbnail?id=XYZ&sz=w800",
			ok:       true,
		},
		{
			name:     "Export with host",
			ref:      "https://drive.google.com/uc?export=view&id=1FahwjokMFOGUJYEprWfo506hsFB4RMtX",
			expected: "https://drive.google.com/thumbnail?id=1FahwjokMFOGUJYEprWfo506hsFB4RMtX&sz=w800",
			ok:       true,
		},
		{
			name:     "Unrecognized is untouched",
			ref:      "https://images.example.com/look.jpg",
			expected: "https://images.example.com/look.jpg",
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Rewrite(tt.ref, "w800")
			if ok != tt.ok {
				t.Fatalf("Rewrite(%q) ok = %v, want %v", tt.ref, ok, tt.ok)
			}
			if got != tt.expected {
				t.Errorf("Rewrite(%q) = %q, want %q", tt.ref, got, tt.expected)
			}
		})
	}
}

func TestRewrite_RoundTripKeepsIdentifier(t *testing.T) {
	ref := ImageReference("https://drive.google.com/thumbnail?id=1ihc8vwgfa9Muj4d9DnzYL4DBK00taVSj&sz=w400")

	export, ok := Rewrite(ref, "w800")
	if !ok || Classify(export) != FormExport {
		t.Fatalf("expected export form, got %q", export)
	}

	back, ok := Rewrite(export, "w800")
	if !ok || Classify(back) != FormThumbnail {
		t.Fatalf("expected thumbnail form, got %q", back)
	}

	id, _ := ExtractDriveID(string(back))
	if id != "1ihc8vwgfa9Muj4d9DnzYL4DBK00taVSj" {
		t.Errorf("identifier changed across rewrites: %q", id)
	}
}

func TestExtractDriveID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		id   string
		ok   bool
	}{
		{name: "open link", url: "https://drive.google.com/open?id=AbC_1-2", id: "AbC_1-2", ok: true},
		{name: "file link", url: "https://drive.google.com/file/d/AbC_1-2/view?usp=sharing", id: "AbC_1-2", ok: true},
		{name: "uc link", url: "https://drive.google.com/uc?id=AbC", id: "AbC", ok: true},
		{name: "export link", url: "https://drive.google.com/uc?export=view&id=AbC", id: "AbC", ok: true},
		{name: "thumbnail link", url: "https://drive.google.com/thumbnail?id=AbC&sz=w400", id: "AbC", ok: true},
		{name: "other host", url: "https://example.com/a.png", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractDriveID(tt.url)
			if ok != tt.ok || id != tt.id {
				t.Errorf("ExtractDriveID(%q) = (%q, %v), want (%q, %v)", tt.url, id, ok, tt.id, tt.ok)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := NormalizeExport("https://drive.google.com/file/d/AbC/view"); got != "https://drive.google.com/uc?export=view&id=AbC" {
		t.Errorf("NormalizeExport = %q", got)
	}
	if got := NormalizeThumbnail("https://drive.google.com/open?id=AbC", GridSizeHint); got != "https://drive.google.com/thumbnail?id=AbC&sz=w400" {
		t.Errorf("NormalizeThumbnail = %q", got)
	}
	if got := NormalizeExport("https://example.com/a.png"); got != "https://example.com/a.png" {
		t.Errorf("NormalizeExport should leave foreign links alone, got %q", got)
	}
}

func TestProject_ThumbnailRef(t *testing.T) {
	p := Project{Images: []ImageReference{"a", "b"}}
	if p.ThumbnailRef() != "a" {
		t.Errorf("expected first image, got %q", p.ThumbnailRef())
	}
	p.Thumbnail = "t"
	if p.ThumbnailRef() != "t" {
		t.Errorf("expected explicit thumbnail, got %q", p.ThumbnailRef())
	}
	if (Project{}).ThumbnailRef() != "" {
		t.Error("expected empty thumbnail for project without images")
	}
}

func TestProject_InCategory(t *testing.T) {
	p := Project{Category: "Editorial"}
	for _, c := range []string{"", "all", "ALL", "editorial", "Editorial"} {
		if !p.InCategory(c) {
			t.Errorf("expected %q to match", c)
		}
	}
	if p.InCategory("SFX") {
		t.Error("expected SFX not to match")
	}
}
