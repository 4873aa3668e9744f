package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/marcolomele/makeup-portfolio/shared/db"
	_ "modernc.org/sqlite"
)

var _ db.Database = (*SQLiteDB)(nil)

const defaultPath = "./portfolio.db"

type SQLiteConfig struct {
	Path string `env:"PORTFOLIO_SQLITE_PATH" envDefault:"./portfolio.db"`
}

// NewSQLiteConfig reads PORTFOLIO_SQLITE_PATH, defaulting to ./portfolio.db.
func NewSQLiteConfig() *SQLiteConfig {
	cfg := &SQLiteConfig{}
	if err := env.Parse(cfg); err != nil || cfg.Path == "" {
		cfg.Path = defaultPath
	}
	return cfg
}

// SQLiteDB implements the db.Database interface for SQLite
type SQLiteDB struct {
	dbPath string
	db     *sql.DB
}

func NewSQLiteDB(cfg *SQLiteConfig) *SQLiteDB {
	return &SQLiteDB{
		dbPath: cfg.Path,
	}
}

// Connect opens the database, applies pragmas and runs pending migrations.
func (s *SQLiteDB) Connect(ctx context.Context) error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	conn, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := runMigrations(ctx, conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = conn
	return nil
}

func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying *sql.DB, or nil when not connected.
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}
