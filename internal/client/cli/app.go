// Package cli implements the interactive on-tab shell: local-first
// bookmark, category, todo and note commands plus account and sync
// management. Every command works offline; sync happens opportunistically
// in the background.
package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/ShiyouQi888/on-tab/internal/client/auth"
	"github.com/ShiyouQi888/on-tab/internal/client/config"
	"github.com/ShiyouQi888/on-tab/internal/client/localdb"
	"github.com/ShiyouQi888/on-tab/internal/client/remote"
	"github.com/ShiyouQi888/on-tab/internal/client/services"
	"github.com/ShiyouQi888/on-tab/internal/client/synclock"
	"github.com/ShiyouQi888/on-tab/internal/client/transfer"
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/ShiyouQi888/on-tab/internal/logging"
)

type App struct {
	config *config.Config

	auth       auth.Service
	bookmarks  services.BookmarkService
	categories services.CategoryService
	todos      services.TodoService
	notes      services.NoteService
	sync       services.SyncService
	transfer   *transfer.Service
	trigger    *services.SyncTrigger

	store  *remote.PostgresStore
	reader *bufio.Reader
	out    io.Writer
	log    logging.Logger
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	lg := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	repos, err := localdb.Init(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	authSvc := auth.NewHTTPService(c.IdentityURL, repos.Metadata, lg)

	// The pool connects lazily, so constructing the remote store succeeds
	// with no network; only sync cycles touch it.
	store, err := remote.NewPostgresStore(ctx, c.RemoteDSN, lg)
	if err != nil {
		return nil, err
	}

	locker := synclock.NewStoreLocker(repos.DB, synclock.DefaultTTL)
	trigger := services.NewSyncTrigger()

	bookmarkSvc := services.NewBookmarkService(authSvc, repos.Bookmarks, trigger)
	categorySvc := services.NewCategoryService(authSvc, repos.Categories, repos.Bookmarks, trigger)
	todoSvc := services.NewTodoService(authSvc, repos.Todos, trigger)
	noteSvc := services.NewNoteService(authSvc, repos.Notes, trigger)
	syncSvc := services.NewSyncService(authSvc, store, store, locker, repos, lg)
	transferSvc := transfer.NewService(bookmarkSvc, categorySvc, transfer.NewMetadataFetcher(), lg)

	return &App{
		config:     c,
		auth:       authSvc,
		bookmarks:  bookmarkSvc,
		categories: categorySvc,
		todos:      todoSvc,
		notes:      noteSvc,
		sync:       syncSvc,
		transfer:   transferSvc,
		trigger:    trigger,
		store:      store,
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		log:        lg,
	}, nil
}

// Run starts the background sync loop and enters the REPL. It returns
// when the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.store.Close()

	go a.runSyncLoop(ctx)
	a.trigger.Kick()

	a.Root(ctx)
}

// runSyncLoop drains the trigger and runs one cycle per kick. Losing the
// advisory lock is routine (another process got there first) and is not
// reported.
func (a *App) runSyncLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.trigger.C():
			if _, err := a.sync.Sync(ctx); err != nil && !errors.Is(err, common.ErrSyncLocked) {
				a.log.Warn(ctx, "background sync failed", "error", err.Error())
			}
		}
	}
}
