// Package sqlite opens the SQLite-backed projection store (pure Go driver).
// Used for local runs and as the real store in package tests.
package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/linkgrove/searchsync/internal/store"
	"github.com/linkgrove/searchsync/internal/store/sqlstore"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projection (
    partition_key TEXT NOT NULL,
    sort_key      TEXT NOT NULL,
    item_type     TEXT NOT NULL,
    data          TEXT NOT NULL,
    created       TEXT NOT NULL,
    updated       TEXT NOT NULL,
    PRIMARY KEY (partition_key, sort_key)
);
CREATE INDEX IF NOT EXISTS projection_item_type_idx ON projection (item_type);
`

// Open opens (or creates) the database at path. Use ":memory:" for an
// in-memory database.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps in-memory databases coherent and sidesteps
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Bootstrap ensures the projection table exists.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}

// NewWithDB constructs the store over an open handle.
func NewWithDB(db *sql.DB) store.Store {
	return sqlstore.New(db, sqlstore.DialectSQLite)
}
