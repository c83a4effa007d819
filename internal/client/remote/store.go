// Package remote is the thin client to the cloud backend: one row-oriented
// table per entity collection, owner-scoped selects, idempotent upserts
// keyed on id, and a notification channel for row-level changes.
//
// The backend enforces row-level access by owner and the
// bookmarks→categories foreign key; this package does not re-validate
// either.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShiyouQi888/on-tab/internal/client/models"
	"github.com/ShiyouQi888/on-tab/internal/logging"
)

// Store is the remote table interface consumed by the sync engine.
// Upserts are insert-or-overwrite by primary key, which makes push
// idempotent and safe to retry. Selects are full owner scans; at personal
// collection scale a delta protocol is not worth its bookkeeping.
type Store interface {
	UpsertCategory(ctx context.Context, c models.Category) error
	UpsertBookmark(ctx context.Context, b models.Bookmark) error
	UpsertTodo(ctx context.Context, t models.Todo) error
	UpsertNote(ctx context.Context, n models.Note) error

	// CategoryExists is the point lookup used for referential repair
	// before pushing a bookmark with a category reference.
	CategoryExists(ctx context.Context, ownerID, id string) (bool, error)

	SelectCategories(ctx context.Context, ownerID string) ([]models.Category, error)
	SelectBookmarks(ctx context.Context, ownerID string) ([]models.Bookmark, error)
	SelectTodos(ctx context.Context, ownerID string) ([]models.Todo, error)
	SelectNotes(ctx context.Context, ownerID string) ([]models.Note, error)
}

// PostgresStore implements Store and Notifier over a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

func NewPostgresStore(ctx context.Context, dsn string, log logging.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote store: %w", err)
	}
	return &PostgresStore{pool: pool, log: log}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *PostgresStore) UpsertCategory(ctx context.Context, c models.Category) error {
	query := `
		INSERT INTO categories (id, user_id, name, icon, ord, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			icon = EXCLUDED.icon,
			ord = EXCLUDED.ord,
			updated_at = EXCLUDED.updated_at,
			deleted = EXCLUDED.deleted
		WHERE categories.user_id = EXCLUDED.user_id
	`
	_, err := s.pool.Exec(ctx, query,
		c.ID, c.OwnerID, c.Name, c.Icon, c.Order, c.CreatedAt, c.UpdatedAt, boolToInt(c.Deleted))
	if err != nil {
		return fmt.Errorf("failed to upsert remote category: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertBookmark(ctx context.Context, b models.Bookmark) error {
	query := `
		INSERT INTO bookmarks (id, user_id, title, url, icon, category_id, tags, notes, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			icon = EXCLUDED.icon,
			category_id = EXCLUDED.category_id,
			tags = EXCLUDED.tags,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at,
			deleted = EXCLUDED.deleted
		WHERE bookmarks.user_id = EXCLUDED.user_id
	`
	var categoryID *string
	if b.CategoryID != "" {
		categoryID = &b.CategoryID
	}
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := s.pool.Exec(ctx, query,
		b.ID, b.OwnerID, b.Title, b.URL, b.Icon, categoryID, tags, b.Notes,
		b.CreatedAt, b.UpdatedAt, boolToInt(b.Deleted))
	if err != nil {
		return fmt.Errorf("failed to upsert remote bookmark: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertTodo(ctx context.Context, t models.Todo) error {
	query := `
		INSERT INTO todos (id, user_id, content, completed, ord, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			completed = EXCLUDED.completed,
			ord = EXCLUDED.ord,
			updated_at = EXCLUDED.updated_at,
			deleted = EXCLUDED.deleted
		WHERE todos.user_id = EXCLUDED.user_id
	`
	_, err := s.pool.Exec(ctx, query,
		t.ID, t.OwnerID, t.Content, boolToInt(t.Completed), t.Order,
		t.CreatedAt, t.UpdatedAt, boolToInt(t.Deleted))
	if err != nil {
		return fmt.Errorf("failed to upsert remote todo: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertNote(ctx context.Context, n models.Note) error {
	query := `
		INSERT INTO notes (id, user_id, content, created_at, updated_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			updated_at = EXCLUDED.updated_at,
			deleted = EXCLUDED.deleted
		WHERE notes.user_id = EXCLUDED.user_id
	`
	_, err := s.pool.Exec(ctx, query,
		n.ID, n.OwnerID, n.Content, n.CreatedAt, n.UpdatedAt, boolToInt(n.Deleted))
	if err != nil {
		return fmt.Errorf("failed to upsert remote note: %w", err)
	}
	return nil
}

func (s *PostgresStore) CategoryExists(ctx context.Context, ownerID, id string) (bool, error) {
	var found string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM categories WHERE user_id = $1 AND id = $2`, ownerID, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check remote category: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) SelectCategories(ctx context.Context, ownerID string) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, icon, ord, created_at, updated_at, deleted
		FROM categories WHERE user_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select remote categories: %w", err)
	}
	defer rows.Close()

	var result []models.Category
	for rows.Next() {
		var c models.Category
		var deleted int
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Icon, &c.Order,
			&c.CreatedAt, &c.UpdatedAt, &deleted); err != nil {
			return nil, err
		}
		c.Deleted = deleted != 0
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) SelectBookmarks(ctx context.Context, ownerID string) ([]models.Bookmark, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, url, icon, category_id, tags, notes, created_at, updated_at, deleted
		FROM bookmarks WHERE user_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select remote bookmarks: %w", err)
	}
	defer rows.Close()

	var result []models.Bookmark
	for rows.Next() {
		var b models.Bookmark
		var categoryID *string
		var deleted int
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Title, &b.URL, &b.Icon, &categoryID,
			&b.Tags, &b.Notes, &b.CreatedAt, &b.UpdatedAt, &deleted); err != nil {
			return nil, err
		}
		if categoryID != nil {
			b.CategoryID = *categoryID
		}
		b.Deleted = deleted != 0
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) SelectTodos(ctx context.Context, ownerID string) ([]models.Todo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, content, completed, ord, created_at, updated_at, deleted
		FROM todos WHERE user_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select remote todos: %w", err)
	}
	defer rows.Close()

	var result []models.Todo
	for rows.Next() {
		var t models.Todo
		var completed, deleted int
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Content, &completed, &t.Order,
			&t.CreatedAt, &t.UpdatedAt, &deleted); err != nil {
			return nil, err
		}
		t.Completed = completed != 0
		t.Deleted = deleted != 0
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) SelectNotes(ctx context.Context, ownerID string) ([]models.Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, content, created_at, updated_at, deleted
		FROM notes WHERE user_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select remote notes: %w", err)
	}
	defer rows.Close()

	var result []models.Note
	for rows.Next() {
		var n models.Note
		var deleted int
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Content, &n.CreatedAt, &n.UpdatedAt, &deleted); err != nil {
			return nil, err
		}
		n.Deleted = deleted != 0
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
