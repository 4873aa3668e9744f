package domain

import (
	"context"
	"strings"
	"time"
)

// Project is a single portfolio entry: a titled set of images in one category.
type Project struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category"`
	Images      []ImageReference `json:"images"`
	Thumbnail   ImageReference   `json:"thumbnail,omitempty"`
	Date        string           `json:"date,omitempty"`
}

// ThumbnailRef returns the reference shown in the grid: the explicit thumbnail,
// or the first image when none is set.
func (p Project) ThumbnailRef() ImageReference {
	if p.Thumbnail != "" {
		return p.Thumbnail
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// InCategory reports whether the project belongs to category, ignoring case.
// The empty category and "all" match every project.
func (p Project) InCategory(category string) bool {
	if category == "" || strings.EqualFold(category, AllCategories) {
		return true
	}
	return strings.EqualFold(p.Category, category)
}

// AllCategories is the filter value that selects every project.
const AllCategories = "all"

// Document is the remote JSON document the portfolio is built from.
type Document struct {
	Projects []Project `json:"projects"`
}

// DocumentSource fetches the raw portfolio document.
type DocumentSource interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Describe returns a human readable location, used in logs.
	Describe() string
}

// Snapshot is the last document that was fetched and decoded successfully.
type Snapshot struct {
	Source    string
	Content   []byte
	FetchedAt time.Time
}

type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, s *Snapshot) error
	// LatestSnapshot returns nil and no error when nothing has been saved yet.
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
}
