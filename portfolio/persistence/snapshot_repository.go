package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/marcolomele/makeup-portfolio/shared/db"
)

var _ domain.SnapshotRepository = (*SQLiteSnapshotRepository)(nil)

// snapshots kept after each save
const snapshotRetention = 5

// SQLiteSnapshotRepository keeps the last few good portfolio documents so the store can
// serve real content while the remote source is down.
type SQLiteSnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(conn *sql.DB) *SQLiteSnapshotRepository {
	return &SQLiteSnapshotRepository{
		db: conn,
	}
}

const insertSnapshotQuery = `
	INSERT INTO document_snapshots (source, content, fetched_at)
	VALUES (?, ?, ?)
`

const pruneSnapshotsQuery = `
	DELETE FROM document_snapshots
	WHERE id NOT IN (
		SELECT id FROM document_snapshots ORDER BY fetched_at DESC, id DESC LIMIT ?
	)
`

// SaveSnapshot stores s and prunes older snapshots in the same transaction.
func (r *SQLiteSnapshotRepository) SaveSnapshot(ctx context.Context, s *domain.Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if len(s.Content) == 0 {
		return fmt.Errorf("snapshot content cannot be empty")
	}

	fetchedAt := s.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		if _, err := executor.ExecContext(txCtx, insertSnapshotQuery, s.Source, s.Content, fetchedAt); err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}

		if _, err := executor.ExecContext(txCtx, pruneSnapshotsQuery, snapshotRetention); err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}

		return nil
	})
}

const latestSnapshotQuery = `
	SELECT source, content, fetched_at
	FROM document_snapshots
	ORDER BY fetched_at DESC, id DESC
	LIMIT 1
`

func (r *SQLiteSnapshotRepository) LatestSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	var s domain.Snapshot
	err := r.db.QueryRowContext(ctx, latestSnapshotQuery).Scan(&s.Source, &s.Content, &s.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return &s, nil
}
