package synclock

import (
	"context"
	"sync"
)

// MemoryLocker guards against concurrent sync calls within a single
// process. It is the fallback when no shared store is available and does
// not protect against other processes.
type MemoryLocker struct {
	mu sync.Mutex
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{}
}

func (l *MemoryLocker) TryAcquire(ctx context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

func (l *MemoryLocker) Release(ctx context.Context) error {
	l.mu.Unlock()
	return nil
}
