package domain

import (
	"context"
	"time"
)

// Resolution records how an image reference was finally displayed.
type Resolution struct {
	ElementID  string
	ProjectID  string
	Original   ImageReference
	Final      ImageReference
	Status     string
	Outcome    string
	Rewrites   int
	LastError  string
	ResolvedAt time.Time
}

type ResolutionRepository interface {
	RecordResolution(ctx context.Context, r *Resolution) error
	// ListRecentResolutions returns the newest records first.
	ListRecentResolutions(ctx context.Context, limit int) ([]*Resolution, error)
	// ListFallbacks returns the newest records that ended on the placeholder.
	ListFallbacks(ctx context.Context, limit int) ([]*Resolution, error)
}
