package bookmarks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ShiyouQi888/on-tab/internal/client/models"
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/ShiyouQi888/on-tab/internal/dbx"
)

// SQLiteRepository implements Repository over a dbx.DBTX
// (either *sql.DB or *sql.Tx). Tags are stored as a JSON array in a TEXT
// column.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const bookmarkColumns = `id, owner_id, title, url, icon, category_id, tags, notes, created_at, updated_at, deleted, sync_status`

func scanBookmark(row interface{ Scan(...any) error }) (*models.Bookmark, error) {
	var b models.Bookmark
	var categoryID sql.NullString
	var tags string
	var deleted int
	err := row.Scan(&b.ID, &b.OwnerID, &b.Title, &b.URL, &b.Icon, &categoryID,
		&tags, &b.Notes, &b.CreatedAt, &b.UpdatedAt, &deleted, &b.SyncStatus)
	if err != nil {
		return nil, err
	}
	b.CategoryID = categoryID.String
	b.Deleted = deleted != 0
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode bookmark tags: %w", err)
		}
	}
	return &b, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode bookmark tags: %w", err)
	}
	return string(raw), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *SQLiteRepository) Put(ctx context.Context, b *models.Bookmark) error {
	tags, err := encodeTags(b.Tags)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO bookmarks (id, owner_id, title, url, icon, category_id, tags, notes, created_at, updated_at, deleted, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			title = excluded.title,
			url = excluded.url,
			icon = excluded.icon,
			category_id = excluded.category_id,
			tags = excluded.tags,
			notes = excluded.notes,
			updated_at = excluded.updated_at,
			deleted = excluded.deleted,
			sync_status = excluded.sync_status
	`
	deleted := 0
	if b.Deleted {
		deleted = 1
	}
	_, err = r.db.ExecContext(ctx, query,
		b.ID, b.OwnerID, b.Title, b.URL, b.Icon, nullable(b.CategoryID),
		tags, b.Notes, b.CreatedAt, b.UpdatedAt, deleted, b.SyncStatus)
	if err != nil {
		return fmt.Errorf("failed to upsert bookmark: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Bookmark, error) {
	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE id = ?`
	b, err := scanBookmark(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string, f Filter) ([]models.Bookmark, int, error) {
	where := []string{"owner_id = ?", "deleted = 0"}
	args := []any{ownerID}

	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Tag != "" {
		// tags is a JSON array; an exact-element match is enough at this scale
		where = append(where, `EXISTS (SELECT 1 FROM json_each(bookmarks.tags) WHERE json_each.value = ?)`)
		args = append(args, f.Tag)
	}
	if f.Query != "" {
		where = append(where, `(LOWER(title) LIKE ? OR LOWER(url) LIKE ? OR LOWER(notes) LIKE ?)`)
		like := "%" + strings.ToLower(f.Query) + "%"
		args = append(args, like, like, like)
	}

	cond := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM bookmarks WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE ` + cond +
		` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	items, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context, ownerID string) ([]models.Bookmark, error) {
	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks
		WHERE owner_id = ? AND sync_status != ? ORDER BY created_at, id`
	return r.list(ctx, query, ownerID, models.SyncStatusSynced)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Bookmark, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select bookmarks: %w", err)
	}
	defer rows.Close()

	var result []models.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookmarks SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set bookmark sync status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkDeleted(ctx context.Context, id string, updatedAt int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookmarks SET deleted = 1, updated_at = ?, sync_status = ? WHERE id = ? AND deleted = 0`,
		updatedAt, models.SyncStatusPending, id)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
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

func (r *SQLiteRepository) ClearCategoryRef(ctx context.Context, id string, updatedAt int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookmarks SET category_id = NULL, updated_at = ?, sync_status = ? WHERE id = ?`,
		updatedAt, models.SyncStatusPending, id)
	if err != nil {
		return fmt.Errorf("failed to clear bookmark category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ClearCategoryRefs(ctx context.Context, ownerID, categoryID string, updatedAt int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookmarks SET category_id = NULL, updated_at = ?, sync_status = ?
		 WHERE owner_id = ? AND category_id = ?`,
		updatedAt, models.SyncStatusPending, ownerID, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear bookmark categories: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) ReassignOwner(ctx context.Context, from, to string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookmarks SET owner_id = ?, sync_status = ? WHERE owner_id = ?`,
		to, models.SyncStatusPending, from)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign bookmarks: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) HealMissingStatus(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookmarks SET sync_status = ? WHERE owner_id = ? AND (sync_status IS NULL OR sync_status = '')`,
		models.SyncStatusPending, ownerID)
	if err != nil {
		return fmt.Errorf("failed to heal bookmark sync status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSyncedTombstones(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE owner_id = ? AND deleted = 1 AND sync_status = ?`,
		ownerID, models.SyncStatusSynced)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up bookmarks: %w", err)
	}
	return res.RowsAffected()
}
