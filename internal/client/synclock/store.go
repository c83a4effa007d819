package synclock

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ShiyouQi888/on-tab/internal/dbx"
	"github.com/ShiyouQi888/on-tab/internal/timex"
)

const lockKey = "sync_lock"

// StoreLocker keeps the lock as a timestamped row in the shared metadata
// table, visible to every process using the same sqlite file. The
// conditional upsert makes acquisition atomic: the row is only overwritten
// when the existing timestamp is older than the TTL.
type StoreLocker struct {
	db  dbx.DBTX
	ttl time.Duration
}

// NewStoreLocker returns a Locker backed by the metadata table of db.
// A non-positive ttl falls back to DefaultTTL.
func NewStoreLocker(db dbx.DBTX, ttl time.Duration) *StoreLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StoreLocker{db: db, ttl: ttl}
}

func (l *StoreLocker) TryAcquire(ctx context.Context) (bool, error) {
	now := timex.NowMillis()
	staleBefore := now - l.ttl.Milliseconds()

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
		WHERE CAST(metadata.value AS INTEGER) <= ?
	`, lockKey, strconv.FormatInt(now, 10), staleBefore)
	if err != nil {
		return false, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

func (l *StoreLocker) Release(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, lockKey)
	if err != nil {
		return fmt.Errorf("failed to release sync lock: %w", err)
	}
	return nil
}
