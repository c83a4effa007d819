package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ShiyouQi888/on-tab/internal/client/models"
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/ShiyouQi888/on-tab/internal/dbx"
)

// SQLiteRepository implements Repository over a dbx.DBTX
// (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const todoColumns = `id, owner_id, content, completed, ord, created_at, updated_at, deleted, sync_status`

func scanTodo(row interface{ Scan(...any) error }) (*models.Todo, error) {
	var t models.Todo
	var completed, deleted int
	err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &completed, &t.Order,
		&t.CreatedAt, &t.UpdatedAt, &deleted, &t.SyncStatus)
	if err != nil {
		return nil, err
	}
	t.Completed = completed != 0
	t.Deleted = deleted != 0
	return &t, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, t *models.Todo) error {
	query := `
		INSERT INTO todos (id, owner_id, content, completed, ord, created_at, updated_at, deleted, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			content = excluded.content,
			completed = excluded.completed,
			ord = excluded.ord,
			updated_at = excluded.updated_at,
			deleted = excluded.deleted,
			sync_status = excluded.sync_status
	`
	completed, deleted := 0, 0
	if t.Completed {
		completed = 1
	}
	if t.Deleted {
		deleted = 1
	}
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.OwnerID, t.Content, completed, t.Order, t.CreatedAt, t.UpdatedAt, deleted, t.SyncStatus)
	if err != nil {
		return fmt.Errorf("failed to upsert todo: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = ?`
	t, err := scanTodo(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos
		WHERE owner_id = ? AND deleted = 0 ORDER BY ord, created_at`
	return r.list(ctx, query, ownerID)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context, ownerID string) ([]models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos
		WHERE owner_id = ? AND sync_status != ? ORDER BY ord, created_at`
	return r.list(ctx, query, ownerID, models.SyncStatusSynced)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Todo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select todos: %w", err)
	}
	defer rows.Close()

	var result []models.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE todos SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set todo sync status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetOrder(ctx context.Context, id string, order int, updatedAt int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE todos SET ord = ?, updated_at = ?, sync_status = ? WHERE id = ?`,
		order, updatedAt, models.SyncStatusPending, id)
	if err != nil {
		return fmt.Errorf("failed to reorder todo: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkDeleted(ctx context.Context, id string, updatedAt int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE todos SET deleted = 1, updated_at = ?, sync_status = ? WHERE id = ? AND deleted = 0`,
		updatedAt, models.SyncStatusPending, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) ReassignOwner(ctx context.Context, from, to string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE todos SET owner_id = ?, sync_status = ? WHERE owner_id = ?`,
		to, models.SyncStatusPending, from)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign todos: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) HealMissingStatus(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE todos SET sync_status = ? WHERE owner_id = ? AND (sync_status IS NULL OR sync_status = '')`,
		models.SyncStatusPending, ownerID)
	if err != nil {
		return fmt.Errorf("failed to heal todo sync status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSyncedTombstones(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM todos WHERE owner_id = ? AND deleted = 1 AND sync_status = ?`,
		ownerID, models.SyncStatusSynced)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up todos: %w", err)
	}
	return res.RowsAffected()
}
