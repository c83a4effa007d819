package notes

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

const noteColumns = `id, owner_id, content, created_at, updated_at, deleted, sync_status`

func scanNote(row interface{ Scan(...any) error }) (*models.Note, error) {
	var n models.Note
	var deleted int
	err := row.Scan(&n.ID, &n.OwnerID, &n.Content, &n.CreatedAt, &n.UpdatedAt, &deleted, &n.SyncStatus)
	if err != nil {
		return nil, err
	}
	n.Deleted = deleted != 0
	return &n, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, n *models.Note) error {
	query := `
		INSERT INTO notes (id, owner_id, content, created_at, updated_at, deleted, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			content = excluded.content,
			updated_at = excluded.updated_at,
			deleted = excluded.deleted,
			sync_status = excluded.sync_status
	`
	deleted := 0
	if n.Deleted {
		deleted = 1
	}
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.OwnerID, n.Content, n.CreatedAt, n.UpdatedAt, deleted, n.SyncStatus)
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE owner_id = ? AND deleted = 0`
	n, err := scanNote(r.db.QueryRowContext(ctx, query, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = ?`
	n, err := scanNote(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context, ownerID string) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE owner_id = ? AND sync_status != ?`
	rows, err := r.db.QueryContext(ctx, query, ownerID, models.SyncStatusSynced)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	var result []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notes SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set note sync status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) HardDelete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ReassignOwner(ctx context.Context, from, to string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET owner_id = ?, sync_status = ? WHERE owner_id = ?`,
		to, models.SyncStatusPending, from)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign notes: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) HealMissingStatus(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notes SET sync_status = ? WHERE owner_id = ? AND (sync_status IS NULL OR sync_status = '')`,
		models.SyncStatusPending, ownerID)
	if err != nil {
		return fmt.Errorf("failed to heal note sync status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSyncedTombstones(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE owner_id = ? AND deleted = 1 AND sync_status = ?`,
		ownerID, models.SyncStatusSynced)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up notes: %w", err)
	}
	return res.RowsAffected()
}
