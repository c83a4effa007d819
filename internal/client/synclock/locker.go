// Package synclock provides the advisory lock that serializes sync cycles
// across execution contexts (CLI process, daemon, future UIs) sharing one
// account.
//
// The lock is best-effort by design: acquisition is non-blocking, a holder
// that crashes is recovered by a TTL, and a missed cycle only costs
// staleness until the next trigger fires.
package synclock

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a crashed or wedged holder can block other
// contexts from syncing.
const DefaultTTL = 30 * time.Second

// Locker is a non-reentrant, non-fair advisory lock.
type Locker interface {
	// TryAcquire attempts to take the lock without waiting. It returns
	// false when another holder owns a lock younger than the TTL.
	TryAcquire(ctx context.Context) (bool, error)

	// Release frees the lock. Callers must release in a defer so the lock
	// is freed on both success and error paths.
	Release(ctx context.Context) error
}
