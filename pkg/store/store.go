// Package store opens the local SQLite database and wires up the per-entity
// repositories. The local store is the system of record while offline.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/offnote/offnote/pkg/store/metadata"
	"github.com/offnote/offnote/pkg/store/migrations"
	"github.com/offnote/offnote/pkg/store/notes"
	"github.com/offnote/offnote/pkg/store/queue"
	"github.com/offnote/offnote/pkg/store/tags"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Store bundles the database handle with repositories bound to it.
type Store struct {
	DB    *sql.DB
	Notes notes.Repository
	Tags  tags.Repository
	Queue queue.Repository
	Meta  metadata.Repository
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the local database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers anyway; a single pooled connection also keeps
	// in-memory databases coherent across the pool.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{
		DB:    db,
		Notes: notes.NewSQLiteRepository(db),
		Tags:  tags.NewSQLiteRepository(db),
		Queue: queue.NewSQLiteRepository(db),
		Meta:  metadata.NewSQLiteRepository(db),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}
