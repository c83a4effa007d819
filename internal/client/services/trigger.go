package services

// SyncTrigger decouples mutation sites from sync execution. Services kick
// the trigger after every local write; whoever runs the sync loop drains
// the channel and runs a cycle. The buffer of one coalesces any burst of
// kicks into a single pending cycle, so a kick never blocks a caller.
type SyncTrigger struct {
	ch chan struct{}
}

func NewSyncTrigger() *SyncTrigger {
	return &SyncTrigger{ch: make(chan struct{}, 1)}
}

// Kick requests a sync cycle. It never blocks: if a cycle is already
// pending the kick is absorbed.
func (t *SyncTrigger) Kick() {
	select {
	case t.ch <- struct{}{}:
	default:
	}
}

// C is the channel the sync loop selects on.
func (t *SyncTrigger) C() <-chan struct{} {
	return t.ch
}
