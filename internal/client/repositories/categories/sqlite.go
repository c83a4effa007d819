package categories

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

const categoryColumns = `id, owner_id, name, icon, ord, created_at, updated_at, deleted, sync_status`

func scanCategory(row interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	var deleted int
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Icon, &c.Order,
		&c.CreatedAt, &c.UpdatedAt, &deleted, &c.SyncStatus)
	if err != nil {
		return nil, err
	}
	c.Deleted = deleted != 0
	return &c, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (id, owner_id, name, icon, ord, created_at, updated_at, deleted, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			name = excluded.name,
			icon = excluded.icon,
			ord = excluded.ord,
			updated_at = excluded.updated_at,
			deleted = excluded.deleted,
			sync_status = excluded.sync_status
	`
	deleted := 0
	if c.Deleted {
		deleted = 1
	}
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.OwnerID, c.Name, c.Icon, c.Order, c.CreatedAt, c.UpdatedAt, deleted, c.SyncStatus)
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories
		WHERE owner_id = ? AND deleted = 0 ORDER BY ord, created_at`
	return r.list(ctx, query, ownerID)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context, ownerID string) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories
		WHERE owner_id = ? AND sync_status != ? ORDER BY ord, created_at`
	return r.list(ctx, query, ownerID, models.SyncStatusSynced)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	defer rows.Close()

	var result []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set category sync status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetOrder(ctx context.Context, id string, order int, updatedAt int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET ord = ?, updated_at = ?, sync_status = ? WHERE id = ?`,
		order, updatedAt, models.SyncStatusPending, id)
	if err != nil {
		return fmt.Errorf("failed to reorder category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkDeleted(ctx context.Context, id string, updatedAt int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET deleted = 1, updated_at = ?, sync_status = ? WHERE id = ? AND deleted = 0`,
		updatedAt, models.SyncStatusPending, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
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
		`UPDATE categories SET owner_id = ?, sync_status = ? WHERE owner_id = ?`,
		to, models.SyncStatusPending, from)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign categories: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) HealMissingStatus(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET sync_status = ? WHERE owner_id = ? AND (sync_status IS NULL OR sync_status = '')`,
		models.SyncStatusPending, ownerID)
	if err != nil {
		return fmt.Errorf("failed to heal category sync status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSyncedTombstones(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE owner_id = ? AND deleted = 1 AND sync_status = ?`,
		ownerID, models.SyncStatusSynced)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up categories: %w", err)
	}
	return res.RowsAffected()
}
