package metadata

import "context"

// Repository is a small key/value store inside the local database, shared
// by every process touching the same sqlite file. It holds the cached
// session, the cross-process sync lock and other bookkeeping.
type Repository interface {
	// Get returns the value for key, or nil if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Removing an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
