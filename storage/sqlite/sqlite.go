// Package sqlite implements the vector and snapshot stores on SQLite using
// the pure Go modernc.org/sqlite driver.
//
// Vectors are kept as little-endian float32 blobs and searched with an
// exhaustive cosine scan. Snapshots are rows keyed by the snapshot key and
// replaced inside one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name        TEXT PRIMARY KEY,
	dimension   INTEGER NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS vectors (
	collection  TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
	id          TEXT NOT NULL,
	path        TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	start_line  INTEGER NOT NULL,
	end_line    INTEGER NOT NULL,
	language    TEXT NOT NULL,
	content     TEXT NOT NULL,
	vector      BLOB NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE TABLE IF NOT EXISTS snapshots (
	snapshot_key TEXT NOT NULL,
	path         TEXT NOT NULL,
	hash         BLOB,
	size         INTEGER NOT NULL,
	mtime        INTEGER NOT NULL,
	PRIMARY KEY (snapshot_key, path)
);
`

// DB is an open SQLite database holding codeindex tables.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{db: db, logger: slog.Default().With("component", "sqlite")}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}
