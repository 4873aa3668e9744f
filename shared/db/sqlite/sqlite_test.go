package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewSQLiteConfig(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     string
	}{
		{
			name:     "env variable",
			envValue: "/tmp/env.db",
			want:     "/tmp/env.db",
		},
		{
			name: "default path",
			want: "./portfolio.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORTFOLIO_SQLITE_PATH", tt.envValue)

			database := NewSQLiteDB(NewSQLiteConfig())

			if database.dbPath != tt.want {
				t.Errorf("dbPath = %v, want %v", database.dbPath, tt.want)
			}
		})
	}
}

func TestSQLiteDB_ConnectAndClose(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})

	if err := database.Close(); err != nil {
		t.Errorf("Close() before Connect() error = %v", err)
	}

	if err := database.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if database.DB() == nil {
		t.Error("DB() returned nil after Connect()")
	}
	if err := database.Connect(context.Background()); err == nil {
		t.Error("Connect() should return error when already connected")
	}

	if err := database.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if database.DB() != nil {
		t.Error("DB() should return nil after Close()")
	}
}

func TestSQLiteDB_ConnectBadPath(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "missing", "dir", "test.db")})

	if err := database.Connect(context.Background()); err == nil {
		database.Close()
		t.Fatal("Connect() should fail when the directory does not exist")
	}
	if database.DB() != nil {
		t.Error("DB() should stay nil after a failed Connect()")
	}
}

func TestSQLiteDB_ConnectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "cancelled.db")})
	if err := database.Connect(ctx); err == nil {
		database.Close()
		t.Fatal("Connect() should fail with a cancelled context")
	}
	if database.DB() != nil {
		t.Error("DB() should stay nil after a failed Connect()")
	}
}
