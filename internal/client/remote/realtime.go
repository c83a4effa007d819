package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Change describes a single remote row mutation as delivered on the
// notification channel.
type Change struct {
	Table   string `json:"table"`
	Op      string `json:"op"`
	ID      string `json:"id"`
	OwnerID string `json:"user_id"`
}

// Subscription is a live change feed. Unsubscribe stops delivery and
// releases the underlying connection.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *Subscription) Unsubscribe() {
	s.cancel()
	<-s.done
}

// Done is closed when the feed ends, whether by Unsubscribe or by a lost
// connection. Callers use it to resubscribe.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Notifier delivers remote row changes for one owner.
type Notifier interface {
	// Subscribe invokes fn for every change to ownerID's rows until the
	// subscription is cancelled. Delivery is best effort: a dropped
	// connection ends the feed, and callers fall back to periodic sync.
	Subscribe(ctx context.Context, ownerID string, fn func(Change)) (*Subscription, error)
}

const notifyChannel = "ontab_changes"

// Subscribe listens on the change channel with a dedicated connection.
// The connection is hijacked out of the pool: a conn sitting in LISTEN
// state must never be handed to another caller.
func (s *PostgresStore) Subscribe(ctx context.Context, ownerID string, fn func(Change)) (*Subscription, error) {
	poolConn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	conn := poolConn.Hijack()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to listen on %s: %w", notifyChannel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			conn.Close(closeCtx)
		}()

		for {
			n, err := conn.WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					s.log.Warn(subCtx, "change feed ended", "error", err.Error())
				}
				return
			}

			var ch Change
			if err := json.Unmarshal([]byte(n.Payload), &ch); err != nil {
				s.log.Warn(subCtx, "skipping malformed change payload", "payload", n.Payload)
				continue
			}
			if ch.OwnerID != ownerID {
				continue
			}
			fn(ch)
		}
	}()

	s.log.Info(ctx, "subscribed to remote changes", "channel", notifyChannel)
	return sub, nil
}

var _ Notifier = (*PostgresStore)(nil)
var _ Store = (*PostgresStore)(nil)
