package todos

import (
	"context"

	"github.com/ShiyouQi888/on-tab/internal/client/models"
)

// Repository describes local storage operations for todo items.
type Repository interface {
	// Put inserts a todo or overwrites an existing one by ID.
	Put(ctx context.Context, t *models.Todo) error

	// GetByID returns a todo regardless of its tombstone state.
	// Returns common.ErrorNotFound if no row exists.
	GetByID(ctx context.Context, id string) (*models.Todo, error)

	// ListByOwner returns live todos for an owner ordered by position.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Todo, error)

	// ListUnsynced returns todos with local changes not yet confirmed by
	// the remote store, tombstones included.
	ListUnsynced(ctx context.Context, ownerID string) ([]models.Todo, error)

	// SetSyncStatus updates only the local sync bookkeeping for a record.
	SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error

	// SetOrder moves a todo to a new position and stamps it pending.
	SetOrder(ctx context.Context, id string, order int, updatedAt int64) error

	// MarkDeleted tombstones a todo and stamps it pending.
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
