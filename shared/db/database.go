package db

import (
	"context"
	"database/sql"
)

// Database is a connection that owns its schema. Connect brings the schema up to date
// before the connection is handed out through DB.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	DB() *sql.DB
}
