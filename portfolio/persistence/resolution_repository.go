package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/marcolomele/makeup-portfolio/shared/db"
)

var _ domain.ResolutionRepository = (*SQLiteResolutionRepository)(nil)

const (
	defaultResolutionLimit = 50
	// rows kept after each record; every page view adds one row per image
	resolutionRetention = 1000
)

// SQLiteResolutionRepository logs how each image element was finally displayed.
type SQLiteResolutionRepository struct {
	db        *sql.DB
	retention int
}

func NewResolutionRepository(conn *sql.DB) *SQLiteResolutionRepository {
	return &SQLiteResolutionRepository{
		db:        conn,
		retention: resolutionRetention,
	}
}

const upsertResolutionQuery = `
	INSERT INTO image_resolutions (element_id, project_id, original, final, status, outcome, rewrites, last_error, resolved_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(element_id) DO UPDATE SET
		final = excluded.final,
		status = excluded.status,
		outcome = excluded.outcome,
		rewrites = excluded.rewrites,
		last_error = excluded.last_error,
		resolved_at = excluded.resolved_at
`

const pruneResolutionsQuery = `
	DELETE FROM image_resolutions
	WHERE element_id NOT IN (
		SELECT element_id FROM image_resolutions ORDER BY resolved_at DESC, rowid DESC LIMIT ?
	)
`

// RecordResolution upserts res and drops the oldest rows beyond the retention cap.
func (r *SQLiteResolutionRepository) RecordResolution(ctx context.Context, res *domain.Resolution) error {
	if res == nil {
		return fmt.Errorf("resolution cannot be nil")
	}
	if res.ElementID == "" {
		return fmt.Errorf("resolution element ID cannot be empty")
	}

	resolvedAt := res.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = time.Now().UTC()
	}

	var lastError any
	if res.LastError != "" {
		lastError = res.LastError
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		_, err := executor.ExecContext(txCtx, upsertResolutionQuery,
			res.ElementID,
			res.ProjectID,
			string(res.Original),
			string(res.Final),
			res.Status,
			res.Outcome,
			res.Rewrites,
			lastError,
			resolvedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to record resolution: %w", err)
		}

		if _, err := executor.ExecContext(txCtx, pruneResolutionsQuery, r.retention); err != nil {
			return fmt.Errorf("failed to prune resolutions: %w", err)
		}

		return nil
	})
}

const listRecentResolutionsQuery = `
	SELECT element_id, project_id, original, final, status, outcome, rewrites, last_error, resolved_at
	FROM image_resolutions
	ORDER BY resolved_at DESC
	LIMIT ?
`

const listFallbacksQuery = `
	SELECT element_id, project_id, original, final, status, outcome, rewrites, last_error, resolved_at
	FROM image_resolutions
	WHERE status = 'fallback'
	ORDER BY resolved_at DESC
	LIMIT ?
`

func (r *SQLiteResolutionRepository) ListRecentResolutions(ctx context.Context, limit int) ([]*domain.Resolution, error) {
	return r.list(ctx, listRecentResolutionsQuery, limit)
}

func (r *SQLiteResolutionRepository) ListFallbacks(ctx context.Context, limit int) ([]*domain.Resolution, error) {
	return r.list(ctx, listFallbacksQuery, limit)
}

func (r *SQLiteResolutionRepository) list(ctx context.Context, query string, limit int) ([]*domain.Resolution, error) {
	if limit <= 0 {
		limit = defaultResolutionLimit
	}

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolutions: %w", err)
	}
	defer rows.Close()

	resolutions := make([]*domain.Resolution, 0)
	for rows.Next() {
		var row resolutionRow
		err := rows.Scan(
			&row.ElementID,
			&row.ProjectID,
			&row.Original,
			&row.Final,
			&row.Status,
			&row.Outcome,
			&row.Rewrites,
			&row.LastError,
			&row.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution row: %w", err)
		}
		resolutions = append(resolutions, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resolution rows: %w", err)
	}

	return resolutions, nil
}

// resolutionRow mirrors image_resolutions; last_error is nullable.
type resolutionRow struct {
	ElementID  string         `db:"element_id"`
	ProjectID  string         `db:"project_id"`
	Original   string         `db:"original"`
	Final      string         `db:"final"`
	Status     string         `db:"status"`
	Outcome    string         `db:"outcome"`
	Rewrites   int            `db:"rewrites"`
	LastError  sql.NullString `db:"last_error"`
	ResolvedAt time.Time      `db:"resolved_at"`
}

func (rr *resolutionRow) toDomain() *domain.Resolution {
	return &domain.Resolution{
		ElementID:  rr.ElementID,
		ProjectID:  rr.ProjectID,
		Original:   domain.ImageReference(rr.Original),
		Final:      domain.ImageReference(rr.Final),
		Status:     rr.Status,
		Outcome:    rr.Outcome,
		Rewrites:   rr.Rewrites,
		LastError:  rr.LastError.String,
		ResolvedAt: rr.ResolvedAt,
	}
}
