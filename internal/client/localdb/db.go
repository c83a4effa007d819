// Package localdb opens the local sqlite store, applies schema migrations
// and wires the per-entity repositories.
package localdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/ShiyouQi888/on-tab/internal/client/localdb/migrations"
	"github.com/ShiyouQi888/on-tab/internal/client/repositories/bookmarks"
	"github.com/ShiyouQi888/on-tab/internal/client/repositories/categories"
	"github.com/ShiyouQi888/on-tab/internal/client/repositories/metadata"
	"github.com/ShiyouQi888/on-tab/internal/client/repositories/notes"
	"github.com/ShiyouQi888/on-tab/internal/client/repositories/todos"
	"github.com/ShiyouQi888/on-tab/internal/dbx"
)

// Repositories bundles the local store handles shared by services.
type Repositories struct {
	DB         *sql.DB
	Bookmarks  bookmarks.Repository
	Categories categories.Repository
	Todos      todos.Repository
	Notes      notes.Repository
	Metadata   metadata.Repository
}

// WithTx runs fn against a repository set bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (r *Repositories) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Repositories) error) error {
	return dbx.WithTx(ctx, r.DB, nil, func(ctx context.Context, h dbx.DBTX) error {
		return fn(ctx, &Repositories{
			DB:         r.DB,
			Bookmarks:  bookmarks.NewSQLiteRepository(h),
			Categories: categories.NewSQLiteRepository(h),
			Todos:      todos.NewSQLiteRepository(h),
			Notes:      notes.NewSQLiteRepository(h),
			Metadata:   metadata.NewSQLiteRepository(h),
		})
	})
}

// RunMigrations applies the embedded goose steps to db. Steps are ordered
// and idempotent; running them on an already-migrated database is a no-op.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Init opens (creating if necessary) the sqlite database at dsn, migrates
// the schema and returns the repository set.
//
// The store is shared between the CLI and the daemon, so writes from
// different processes may interleave; sqlite's own locking serializes them.
func Init(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate local database: %w", err)
	}

	return &Repositories{
		DB:         db,
		Bookmarks:  bookmarks.NewSQLiteRepository(db),
		Categories: categories.NewSQLiteRepository(db),
		Todos:      todos.NewSQLiteRepository(db),
		Notes:      notes.NewSQLiteRepository(db),
		Metadata:   metadata.NewSQLiteRepository(db),
	}, nil
}
