// Package daemon runs the background sync agent. It shares the local
// database file with the interactive CLI and keeps it reconciled with the
// cloud store: a periodic timer covers the quiet case, the remote change
// feed covers edits made on other devices, and an auth-state subscription
// reacts to sign-in from the same process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ShiyouQi888/on-tab/internal/client/auth"
	"github.com/ShiyouQi888/on-tab/internal/client/config"
	"github.com/ShiyouQi888/on-tab/internal/client/localdb"
	"github.com/ShiyouQi888/on-tab/internal/client/remote"
	"github.com/ShiyouQi888/on-tab/internal/client/services"
	"github.com/ShiyouQi888/on-tab/internal/client/synclock"
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/ShiyouQi888/on-tab/internal/logging"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	auth    auth.Service
	sync    services.SyncService
	trigger *services.SyncTrigger
	store   *remote.PostgresStore
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	zl, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	logger := logging.NewZapLogger(zl)

	repos, err := localdb.Init(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	// The daemon owns the remote schema; the CLI assumes it is in place.
	if err := remote.RunMigrations(ctx, c.RemoteDSN); err != nil {
		return nil, fmt.Errorf("remote migration error: %w", err)
	}

	store, err := remote.NewPostgresStore(ctx, c.RemoteDSN, logger)
	if err != nil {
		return nil, err
	}

	authSvc := auth.NewHTTPService(c.IdentityURL, repos.Metadata, logger)
	locker := synclock.NewStoreLocker(repos.DB, synclock.DefaultTTL)
	trigger := services.NewSyncTrigger()
	syncSvc := services.NewSyncService(authSvc, store, store, locker, repos, logger)

	return &App{
		config:  c,
		logger:  logger,
		auth:    authSvc,
		sync:    syncSvc,
		trigger: trigger,
		store:   store,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.store.Close()

	app.logger.Info(ctx, "starting sync daemon",
		"db", app.config.DatabasePath, "interval", app.config.SyncInterval.String())

	app.initSignalHandler(cancelFunc)

	unsubscribe := app.auth.OnAuthStateChange(func(auth.Identity) {
		app.trigger.Kick()
	})
	defer unsubscribe()

	go app.watchRemote(ctx)

	ticker := time.NewTicker(app.config.SyncInterval)
	defer ticker.Stop()

	// Catch up immediately on start.
	app.trigger.Kick()

	for {
		select {
		case <-ctx.Done():
			app.logger.Info(context.WithoutCancel(ctx), "sync daemon stopping")
			return
		case <-ticker.C:
			app.trigger.Kick()
		case <-app.trigger.C():
			app.runCycle(ctx)
		}
	}
}

func (app *App) runCycle(ctx context.Context) {
	n, err := app.sync.Sync(ctx)
	switch {
	case errors.Is(err, common.ErrSyncLocked):
		app.logger.Info(ctx, "sync skipped, another context holds the lock")
	case err != nil:
		app.logger.Warn(ctx, "sync cycle incomplete", "pulled", n, "error", err.Error())
	case n > 0:
		app.logger.Info(ctx, "sync cycle done", "pulled", n)
	}
}

// watchRemote keeps a change-feed subscription alive while a user is
// signed in. Every received change kicks a sync cycle; connection loss is
// retried with a flat backoff, and the periodic ticker covers the gaps.
func (app *App) watchRemote(ctx context.Context) {
	const retryDelay = 30 * time.Second

	// The feed is scoped to the identity current at subscribe time, so a
	// sign-in or sign-out invalidates it and the loop must resubscribe.
	authChanged := make(chan struct{}, 1)
	unsubscribe := app.auth.OnAuthStateChange(func(auth.Identity) {
		select {
		case authChanged <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		sub, err := app.sync.Subscribe(ctx, app.trigger.Kick)
		if err != nil {
			if !errors.Is(err, common.ErrorUnauthorized) {
				app.logger.Warn(ctx, "change feed unavailable", "error", err.Error())
			}
			select {
			case <-ctx.Done():
				return
			case <-authChanged:
			case <-time.After(retryDelay):
			}
			continue
		}

		select {
		case <-ctx.Done():
			sub.Unsubscribe()
			return
		case <-authChanged:
			// Scoped to the previous identity; drop it and start over.
			sub.Unsubscribe()
		case <-sub.Done():
			// Feed dropped; catch up once and resubscribe.
			app.trigger.Kick()
		}
	}
}
