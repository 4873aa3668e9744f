package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	up      string
}

// migrations is applied in order; each entry runs once.
var migrations = []migration{
	{
		version: 1,
		name:    "create_document_snapshots_table",
		up: `
			CREATE TABLE IF NOT EXISTS document_snapshots (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				source TEXT NOT NULL,
				content BLOB NOT NULL,
				fetched_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_document_snapshots_fetched_at
			ON document_snapshots(fetched_at DESC);
		`,
	},
	{
		version: 2,
		name:    "create_image_resolutions_table",
		up: `
			CREATE TABLE IF NOT EXISTS image_resolutions (
				element_id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL DEFAULT '',
				original TEXT NOT NULL,
				final TEXT NOT NULL,
				status TEXT NOT NULL,
				outcome TEXT NOT NULL,
				rewrites INTEGER NOT NULL DEFAULT 0,
				last_error TEXT,
				resolved_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_image_resolutions_resolved_at
			ON image_resolutions(resolved_at DESC);

			CREATE INDEX IF NOT EXISTS idx_image_resolutions_fallbacks
			ON image_resolutions(resolved_at DESC)
			WHERE status = 'fallback';
		`,
	},
}

func runMigrations(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if err := applyMigration(ctx, conn, m); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(ctx context.Context, conn *sql.DB, m migration) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
	}

	if _, err := tx.ExecContext(ctx, m.up); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}
