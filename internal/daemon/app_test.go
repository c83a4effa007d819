package daemon

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ShiyouQi888/on-tab/internal/client/auth"
	"github.com/ShiyouQi888/on-tab/internal/client/remote"
	"github.com/ShiyouQi888/on-tab/internal/client/services"
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/ShiyouQi888/on-tab/internal/logging"
)

// fakeSync counts subscription attempts; the guest error path keeps
// watchRemote in its retry loop.
type fakeSync struct {
	subscribeCalls atomic.Int32
}

func (f *fakeSync) Sync(context.Context) (int, error) { return 0, nil }

func (f *fakeSync) Subscribe(context.Context, func()) (*remote.Subscription, error) {
	f.subscribeCalls.Add(1)
	return nil, common.ErrorUnauthorized
}

type fakeAuthState struct {
	mu  sync.Mutex
	fns []func(auth.Identity)
}

func (f *fakeAuthState) SignUp(context.Context, string, string) error { return nil }
func (f *fakeAuthState) SignIn(context.Context, string, string) (*auth.User, error) {
	return nil, nil
}
func (f *fakeAuthState) SignOut(context.Context) error         { return nil }
func (f *fakeAuthState) Current(context.Context) auth.Identity { return auth.Guest() }
func (f *fakeAuthState) EffectiveOwnerID(context.Context) string {
	return common.GuestOwnerID
}

func (f *fakeAuthState) OnAuthStateChange(fn func(auth.Identity)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns = append(f.fns, fn)
	return func() {}
}

func (f *fakeAuthState) fire(ident auth.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fn := range f.fns {
		fn(ident)
	}
}

func TestWatchRemote_ResubscribesOnAuthChange(t *testing.T) {
	syncSvc := &fakeSync{}
	authSvc := &fakeAuthState{}
	app := &App{
		logger:  logging.NewZapLogger(zap.NewNop()),
		auth:    authSvc,
		sync:    syncSvc,
		trigger: services.NewSyncTrigger(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.watchRemote(ctx)

	// the first attempt happens right away, then the loop parks on the
	// retry delay
	require.Eventually(t, func() bool {
		return syncSvc.subscribeCalls.Load() == 1
	}, time.Second, 10*time.Millisecond)

	// a sign-in must nudge the loop long before the retry delay expires
	authSvc.fire(auth.Authenticated(&auth.User{ID: "user-1"}))
	require.Eventually(t, func() bool {
		return syncSvc.subscribeCalls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}
