// Package postgres opens the Postgres-backed projection store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/linkgrove/searchsync/internal/store"
	"github.com/linkgrove/searchsync/internal/store/sqlstore"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projection (
    partition_key TEXT        NOT NULL,
    sort_key      TEXT        NOT NULL,
    item_type     TEXT        NOT NULL,
    data          JSONB       NOT NULL,
    created       TIMESTAMPTZ NOT NULL,
    updated       TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (partition_key, sort_key)
);
CREATE INDEX IF NOT EXISTS projection_item_type_idx ON projection (item_type);
`

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
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
	return sqlstore.New(db, sqlstore.DialectPostgres)
}
