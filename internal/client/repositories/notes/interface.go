package notes

import (
	"context"

	"github.com/ShiyouQi888/on-tab/internal/client/models"
)

// Repository describes local storage operations for the per-owner note.
// The schema enforces at most one live note per owner.
type Repository interface {
	// Put inserts a note or overwrites an existing one by ID.
	Put(ctx context.Context, n *models.Note) error

	// GetByOwner returns the owner's live note.
	// Returns common.ErrorNotFound if none exists yet.
	GetByOwner(ctx context.Context, ownerID string) (*models.Note, error)

	// GetByID returns a note regardless of its tombstone state.
	GetByID(ctx context.Context, id string) (*models.Note, error)

	// ListUnsynced returns notes with local changes not yet confirmed by
	// the remote store, tombstones included.
	ListUnsynced(ctx context.Context, ownerID string) ([]models.Note, error)

	// SetSyncStatus updates only the local sync bookkeeping for a record.
	SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error

	// HardDelete removes a note row outright. Used when merging a guest
	// note would collide with the authenticated owner's singleton.
	HardDelete(ctx context.Context, id string) error

	// ReassignOwner moves every record owned by from to the owner to,
	// stamping each pending. Returns the number of rows moved.
	ReassignOwner(ctx context.Context, from, to string) (int64, error)

	// HealMissingStatus stamps records lacking a sync status as pending.
	HealMissingStatus(ctx context.Context, ownerID string) error

	// DeleteSyncedTombstones physically removes rows that are both
	// tombstoned and confirmed synced. Returns the number of rows removed.
	DeleteSyncedTombstones(ctx context.Context, ownerID string) (int64, error)
}
