package categories

import (
	"context"

	"github.com/ShiyouQi888/on-tab/internal/client/models"
)

// Repository describes local storage operations for categories.
// Implementations are backed by the local sqlite database.
type Repository interface {
	// Put inserts a category or overwrites an existing one by ID.
	Put(ctx context.Context, c *models.Category) error

	// GetByID returns a category regardless of its tombstone state.
	// Returns common.ErrorNotFound if no row exists.
	GetByID(ctx context.Context, id string) (*models.Category, error)

	// ListByOwner returns live categories for an owner ordered by position.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Category, error)

	// ListUnsynced returns categories with local changes not yet confirmed
	// by the remote store (sync status != synced), tombstones included.
	ListUnsynced(ctx context.Context, ownerID string) ([]models.Category, error)

	// SetSyncStatus updates only the local sync bookkeeping for a record.
	SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error

	// SetOrder moves a category to a new position and stamps it pending.
	SetOrder(ctx context.Context, id string, order int, updatedAt int64) error

	// MarkDeleted tombstones a category and stamps it pending.
	MarkDeleted(ctx context.Context, id string, updatedAt int64) error

	// ReassignOwner moves every record owned by from to the owner to,
	// stamping each pending. Returns the number of rows moved.
	ReassignOwner(ctx context.Context, from, to string) (int64, error)

	// HealMissingStatus stamps records lacking a sync status as pending.
	HealMissingStatus(ctx context.Context, ownerID string) error

	// DeleteSyncedTombstones physically removes rows that are both
	// tombstoned and confirmed synced. Returns the number of rows removed.
	DeleteSyncedTombstones(ctx context.Context, ownerID string) (int64, error)
}
