package bookmarks

import (
	"context"

	"github.com/ShiyouQi888/on-tab/internal/client/models"
)

// Filter narrows ListByOwner results. Zero values mean "no constraint";
// a zero Limit falls back to DefaultLimit.
type Filter struct {
	CategoryID string
	Tag        string
	// Query matches title, url or notes, case-insensitively.
	Query  string
	Offset int
	Limit  int
}

// DefaultLimit caps a page of bookmarks when the caller does not ask for
// a specific size.
const DefaultLimit = 50

// Repository describes local storage operations for bookmarks.
type Repository interface {
	// Put inserts a bookmark or overwrites an existing one by ID.
	Put(ctx context.Context, b *models.Bookmark) error

	// GetByID returns a bookmark regardless of its tombstone state.
	// Returns common.ErrorNotFound if no row exists.
	GetByID(ctx context.Context, id string) (*models.Bookmark, error)

	// ListByOwner returns a page of live bookmarks (newest first) plus the
	// total number of live bookmarks matching the filter.
	ListByOwner(ctx context.Context, ownerID string, f Filter) ([]models.Bookmark, int, error)

	// ListUnsynced returns bookmarks with local changes not yet confirmed
	// by the remote store, tombstones included.
	ListUnsynced(ctx context.Context, ownerID string) ([]models.Bookmark, error)

	// SetSyncStatus updates only the local sync bookkeeping for a record.
	SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error

	// MarkDeleted tombstones a bookmark and stamps it pending.
	MarkDeleted(ctx context.Context, id string, updatedAt int64) error

	// ClearCategoryRef detaches one bookmark from its category and stamps
	// it pending. Used to heal dangling references before push.
	ClearCategoryRef(ctx context.Context, id string, updatedAt int64) error

	// ClearCategoryRefs detaches every bookmark of an owner from the given
	// category. Used when the category itself is deleted.
	ClearCategoryRefs(ctx context.Context, ownerID, categoryID string, updatedAt int64) (int64, error)

	// ReassignOwner moves every record owned by from to the owner to,
	// stamping each pending. Returns the number of rows moved.
	ReassignOwner(ctx context.Context, from, to string) (int64, error)

	// HealMissingStatus stamps records lacking a sync status as pending.
	HealMissingStatus(ctx context.Context, ownerID string) error

	// DeleteSyncedTombstones physically removes rows that are both
	// tombstoned and confirmed synced. Returns the number of rows removed.
	DeleteSyncedTombstones(ctx context.Context, ownerID string) (int64, error)
}
