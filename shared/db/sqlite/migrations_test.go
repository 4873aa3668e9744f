package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func connectTemp(t *testing.T, path string) *SQLiteDB {
	t.Helper()
	database := NewSQLiteDB(&SQLiteConfig{Path: path})
	if err := database.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return database
}

func TestRunMigrations(t *testing.T) {
	database := connectTemp(t, filepath.Join(t.TempDir(), "test.db"))
	defer database.Close()

	conn := database.DB()

	objects := []struct {
		kind string
		name string
	}{
		{kind: "table", name: "schema_migrations"},
		{kind: "table", name: "document_snapshots"},
		{kind: "table", name: "image_resolutions"},
		{kind: "index", name: "idx_document_snapshots_fetched_at"},
		{kind: "index", name: "idx_image_resolutions_resolved_at"},
		{kind: "index", name: "idx_image_resolutions_fallbacks"},
	}

	for _, o := range objects {
		var count int
		err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", o.kind, o.name).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check %s %s: %v", o.kind, o.name, err)
		}
		if count != 1 {
			t.Errorf("%s %s not created", o.kind, o.name)
		}
	}

	var version int
	if err := conn.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		t.Fatalf("Failed to query schema_migrations: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("version = %d, want %d", version, len(migrations))
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first := connectTemp(t, path)
	first.Close()

	second := connectTemp(t, path)
	defer second.Close()

	var count int
	if err := second.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to query schema_migrations: %v", err)
	}
	if count != len(migrations) {
		t.Errorf("migrations recorded %d times, want %d", count, len(migrations))
	}
}
