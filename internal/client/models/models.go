// Package models defines the client-side entities persisted in the local
// store and mirrored to the remote store: bookmarks, categories, todos and
// a per-owner note.
//
// All entities share the same sync bookkeeping: a client-generated UUID,
// an owner id (guest sentinel or authenticated user id), millisecond
// created/updated timestamps used for last-writer-wins resolution, a
// tombstone flag and a local-only sync status.
package models

// SyncStatus tags the local replica of a record. It is never pushed to the
// remote store.
type SyncStatus string

const (
	// SyncStatusSynced means the remote store has confirmed this version.
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusPending means a local mutation has not been pushed yet.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusError marks a non-transient push failure needing attention.
	SyncStatusError SyncStatus = "error"
)

// Bookmark is a saved link, optionally filed under a category.
type Bookmark struct {
	ID      string
	OwnerID string

	Title string
	URL   string
	// Icon is an optional favicon/image URL.
	Icon string
	// CategoryID references a Category; empty means uncategorized.
	// The remote store enforces this reference with a foreign key, so a
	// locally dangling value must be healed before push.
	CategoryID string
	Tags       []string
	Notes      string

	CreatedAt int64
	UpdatedAt int64
	Deleted   bool

	SyncStatus SyncStatus
}

// Category is a named bookmark group shown in a fixed sidebar position.
type Category struct {
	ID      string
	OwnerID string

	Name string
	// Icon is a symbolic identifier, not a URL.
	Icon string
	// Order defines the sidebar position. Values are renumbered to a dense
	// 0..n-1 sequence whenever a read detects a gap.
	Order int

	CreatedAt int64
	UpdatedAt int64
	Deleted   bool

	SyncStatus SyncStatus
}

// Todo is a single checklist item.
type Todo struct {
	ID      string
	OwnerID string

	Content   string
	Completed bool
	Order     int

	CreatedAt int64
	UpdatedAt int64
	Deleted   bool

	SyncStatus SyncStatus
}

// Note is the per-owner scratchpad. At most one live Note exists per owner.
type Note struct {
	ID      string
	OwnerID string

	Content string

	CreatedAt int64
	UpdatedAt int64
	Deleted   bool

	SyncStatus SyncStatus
}
