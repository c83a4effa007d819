package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ShiyouQi888/on-tab/internal/client/auth"
	"github.com/ShiyouQi888/on-tab/internal/client/localdb"
	"github.com/ShiyouQi888/on-tab/internal/client/models"
	"github.com/ShiyouQi888/on-tab/internal/client/remote"
	"github.com/ShiyouQi888/on-tab/internal/client/synclock"
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/ShiyouQi888/on-tab/internal/logging"
	"github.com/ShiyouQi888/on-tab/internal/timex"
)

// DefaultOpTimeout bounds each individual remote call inside a sync cycle
// so one wedged request cannot hold the sync lock until the TTL expires.
const DefaultOpTimeout = 15 * time.Second

// SyncService runs the bidirectional reconciliation between the local
// store and the remote store.
type SyncService interface {
	// Sync runs one full cycle: merge guest data into the signed-in
	// account, push local pending changes, pull remote state, clean up
	// confirmed tombstones. It returns the number of remote records
	// applied locally; pushes are not counted.
	//
	// A cycle under a guest identity is a no-op. A cycle that loses the
	// advisory lock returns common.ErrSyncLocked; the caller decides
	// whether that is worth reporting.
	Sync(ctx context.Context) (int, error)

	// Subscribe starts the remote change feed for the current user and
	// invokes onChange for every relevant row mutation. Under a guest
	// identity it returns common.ErrorUnauthorized.
	Subscribe(ctx context.Context, onChange func()) (*remote.Subscription, error)
}

type syncService struct {
	auth     auth.Service
	store    remote.Store
	notifier remote.Notifier
	locker   synclock.Locker
	repos    *localdb.Repositories

	log       logging.Logger
	opTimeout time.Duration
}

func NewSyncService(
	authSvc auth.Service,
	store remote.Store,
	notifier remote.Notifier,
	locker synclock.Locker,
	repos *localdb.Repositories,
	log logging.Logger,
) SyncService {
	return &syncService{
		auth:      authSvc,
		store:     store,
		notifier:  notifier,
		locker:    locker,
		repos:     repos,
		log:       log,
		opTimeout: DefaultOpTimeout,
	}
}

// opCtx bounds a single remote call.
func (s *syncService) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *syncService) Sync(ctx context.Context) (int, error) {
	ident := s.auth.Current(ctx)
	if !ident.IsAuthenticated() {
		return 0, nil
	}
	userID := ident.User().ID

	acquired, err := s.locker.TryAcquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !acquired {
		return 0, common.ErrSyncLocked
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn(ctx, "failed to release sync lock", "error", err.Error())
		}
	}()

	if err := s.mergeGuestData(ctx, userID); err != nil {
		return 0, fmt.Errorf("failed to merge guest data: %w", err)
	}

	pushed, pushErr := s.push(ctx, userID)
	pulled, pullErr := s.pull(ctx, userID)

	// Cleanup only removes tombstones the remote has confirmed, so it is
	// safe to run even after a partial push or pull.
	s.cleanup(ctx, userID)

	if pushErr != nil || pullErr != nil {
		return pulled, errors.Join(pushErr, pullErr)
	}
	s.log.Info(ctx, "sync cycle complete", "pushed", pushed, "pulled", pulled)
	return pulled, nil
}

func (s *syncService) Subscribe(ctx context.Context, onChange func()) (*remote.Subscription, error) {
	ident := s.auth.Current(ctx)
	if !ident.IsAuthenticated() {
		return nil, fmt.Errorf("change feed needs a signed-in user: %w", common.ErrorUnauthorized)
	}
	return s.notifier.Subscribe(ctx, ident.User().ID, func(remote.Change) {
		onChange()
	})
}

// mergeGuestData adopts everything created before sign-in into the user's
// account, atomically: a crash mid-merge must not leave half the guest
// records reassigned. Guest records have never been pushed, so reassignment
// cannot clash with remote rows; the one local collision is the note
// singleton, resolved by timestamp.
func (s *syncService) mergeGuestData(ctx context.Context, userID string) error {
	return s.repos.WithTx(ctx, func(ctx context.Context, tx *localdb.Repositories) error {
		if n, err := tx.Categories.ReassignOwner(ctx, common.GuestOwnerID, userID); err != nil {
			return fmt.Errorf("categories: %w", err)
		} else if n > 0 {
			s.log.Info(ctx, "merged guest categories", "count", n)
		}
		if n, err := tx.Bookmarks.ReassignOwner(ctx, common.GuestOwnerID, userID); err != nil {
			return fmt.Errorf("bookmarks: %w", err)
		} else if n > 0 {
			s.log.Info(ctx, "merged guest bookmarks", "count", n)
		}
		if n, err := tx.Todos.ReassignOwner(ctx, common.GuestOwnerID, userID); err != nil {
			return fmt.Errorf("todos: %w", err)
		} else if n > 0 {
			s.log.Info(ctx, "merged guest todos", "count", n)
		}
		if err := s.mergeGuestNote(ctx, tx, userID); err != nil {
			return fmt.Errorf("note: %w", err)
		}

		// Records written by old client versions may predate sync
		// bookkeeping; stamp them so push sees them.
		if err := tx.Categories.HealMissingStatus(ctx, userID); err != nil {
			return err
		}
		if err := tx.Bookmarks.HealMissingStatus(ctx, userID); err != nil {
			return err
		}
		if err := tx.Todos.HealMissingStatus(ctx, userID); err != nil {
			return err
		}
		return tx.Notes.HealMissingStatus(ctx, userID)
	})
}

func (s *syncService) mergeGuestNote(ctx context.Context, tx *localdb.Repositories, userID string) error {
	guestNote, err := tx.Notes.GetByOwner(ctx, common.GuestOwnerID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	userNote, err := tx.Notes.GetByOwner(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	if userNote != nil {
		if guestNote.UpdatedAt > userNote.UpdatedAt {
			// The guest note wins; tombstone the account note so the
			// delete propagates upstream.
			if err := tx.Notes.Put(ctx, &models.Note{
				ID: userNote.ID, OwnerID: userNote.OwnerID,
				Content:    userNote.Content,
				CreatedAt:  userNote.CreatedAt,
				UpdatedAt:  timex.NowMillis(),
				Deleted:    true,
				SyncStatus: models.SyncStatusPending,
			}); err != nil {
				return err
			}
		} else {
			// Account note wins. Guest records were never pushed, so the
			// losing note can be removed outright.
			return tx.Notes.HardDelete(ctx, guestNote.ID)
		}
	}

	if _, err := tx.Notes.ReassignOwner(ctx, common.GuestOwnerID, userID); err != nil {
		return err
	}
	s.log.Info(ctx, "merged guest note")
	return nil
}

// push uploads every record with unconfirmed local changes. Categories go
// first so bookmark references resolve on the remote side. Failures are
// isolated per record: the record stays pending for the next cycle and the
// cycle moves on.
func (s *syncService) push(ctx context.Context, userID string) (int, error) {
	var pushed, failed int

	cats, err := s.repos.Categories.ListUnsynced(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list unsynced categories: %w", err)
	}
	for _, c := range cats {
		if err := s.pushCategory(ctx, c); err != nil {
			failed++
			s.log.Warn(ctx, "category push failed", "id", c.ID, "error", err.Error())
		} else {
			pushed++
		}
	}

	bms, err := s.repos.Bookmarks.ListUnsynced(ctx, userID)
	if err != nil {
		return pushed, fmt.Errorf("failed to list unsynced bookmarks: %w", err)
	}
	for _, b := range bms {
		switch err := s.pushBookmark(ctx, b); {
		case errors.Is(err, errRefCleared):
			// stays pending; the repaired record goes up next cycle
		case err != nil:
			failed++
			s.log.Warn(ctx, "bookmark push failed", "id", b.ID, "error", err.Error())
		default:
			pushed++
		}
	}

	tds, err := s.repos.Todos.ListUnsynced(ctx, userID)
	if err != nil {
		return pushed, fmt.Errorf("failed to list unsynced todos: %w", err)
	}
	for _, t := range tds {
		if err := s.pushTodo(ctx, t); err != nil {
			failed++
			s.log.Warn(ctx, "todo push failed", "id", t.ID, "error", err.Error())
		} else {
			pushed++
		}
	}

	nts, err := s.repos.Notes.ListUnsynced(ctx, userID)
	if err != nil {
		return pushed, fmt.Errorf("failed to list unsynced notes: %w", err)
	}
	for _, n := range nts {
		if err := s.pushNote(ctx, n); err != nil {
			failed++
			s.log.Warn(ctx, "note push failed", "id", n.ID, "error", err.Error())
		} else {
			pushed++
		}
	}

	if failed > 0 {
		return pushed, fmt.Errorf("push left %d records pending", failed)
	}
	return pushed, nil
}

func (s *syncService) pushCategory(ctx context.Context, c models.Category) error {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.store.UpsertCategory(opCtx, c); err != nil {
		return err
	}
	return s.repos.Categories.SetSyncStatus(ctx, c.ID, models.SyncStatusSynced)
}

// errRefCleared reports that a bookmark's dangling category reference was
// cleared instead of pushed; the record stays pending and the next cycle
// uploads the repaired version.
var errRefCleared = errors.New("dangling category reference cleared")

func (s *syncService) pushBookmark(ctx context.Context, b models.Bookmark) error {
	if b.CategoryID != "" {
		if err := s.repairCategoryRef(ctx, b); err != nil {
			return err
		}
	}
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.store.UpsertBookmark(opCtx, b); err != nil {
		return err
	}
	return s.repos.Bookmarks.SetSyncStatus(ctx, b.ID, models.SyncStatusSynced)
}

// repairCategoryRef makes sure the bookmark's category exists remotely
// before the bookmark is pushed, since the remote schema enforces the
// reference. A category that exists locally is pushed out of order; a
// reference with no local backing is dangling, so it is cleared and the
// push deferred with errRefCleared.
func (s *syncService) repairCategoryRef(ctx context.Context, b models.Bookmark) error {
	opCtx, cancel := s.opCtx(ctx)
	exists, err := s.store.CategoryExists(opCtx, b.OwnerID, b.CategoryID)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to verify category reference: %w", err)
	}
	if exists {
		return nil
	}

	cat, err := s.repos.Categories.GetByID(ctx, b.CategoryID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.log.Warn(ctx, "clearing dangling category reference",
			"bookmark_id", b.ID, "category_id", b.CategoryID)
		if err := s.repos.Bookmarks.ClearCategoryRef(ctx, b.ID, timex.NowMillis()); err != nil {
			return err
		}
		return errRefCleared
	case err != nil:
		return err
	}

	if err := s.pushCategory(ctx, *cat); err != nil {
		return fmt.Errorf("%w: category %s: %s", common.ErrDanglingRef, cat.ID, err.Error())
	}
	return nil
}

func (s *syncService) pushTodo(ctx context.Context, t models.Todo) error {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.store.UpsertTodo(opCtx, t); err != nil {
		return err
	}
	return s.repos.Todos.SetSyncStatus(ctx, t.ID, models.SyncStatusSynced)
}

func (s *syncService) pushNote(ctx context.Context, n models.Note) error {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	if err := s.store.UpsertNote(opCtx, n); err != nil {
		return err
	}
	return s.repos.Notes.SetSyncStatus(ctx, n.ID, models.SyncStatusSynced)
}

// pull downloads the remote state and applies every record that is
// strictly newer than its local counterpart. The four collections are
// independent phases: one failing fetch does not stop the others, and the
// failures are reported together.
func (s *syncService) pull(ctx context.Context, userID string) (int, error) {
	var pulled int
	var errs []error

	if n, err := s.pullCategories(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("categories: %w", err))
	} else {
		pulled += n
	}
	if n, err := s.pullBookmarks(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("bookmarks: %w", err))
	} else {
		pulled += n
	}
	if n, err := s.pullTodos(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("todos: %w", err))
	} else {
		pulled += n
	}
	if n, err := s.pullNotes(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("notes: %w", err))
	} else {
		pulled += n
	}

	return pulled, errors.Join(errs...)
}

func (s *syncService) pullCategories(ctx context.Context, userID string) (int, error) {
	opCtx, cancel := s.opCtx(ctx)
	remoteCats, err := s.store.SelectCategories(opCtx, userID)
	cancel()
	if err != nil {
		return 0, err
	}

	var applied int
	for _, rc := range remoteCats {
		local, err := s.repos.Categories.GetByID(ctx, rc.ID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return applied, err
		default:
			// Ties favor the local replica.
			if rc.UpdatedAt <= local.UpdatedAt {
				continue
			}
		}
		rc.SyncStatus = models.SyncStatusSynced
		if err := s.repos.Categories.Put(ctx, &rc); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (s *syncService) pullBookmarks(ctx context.Context, userID string) (int, error) {
	opCtx, cancel := s.opCtx(ctx)
	remoteBms, err := s.store.SelectBookmarks(opCtx, userID)
	cancel()
	if err != nil {
		return 0, err
	}

	var applied int
	for _, rb := range remoteBms {
		local, err := s.repos.Bookmarks.GetByID(ctx, rb.ID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return applied, err
		default:
			if rb.UpdatedAt <= local.UpdatedAt {
				continue
			}
		}
		rb.SyncStatus = models.SyncStatusSynced
		if err := s.repos.Bookmarks.Put(ctx, &rb); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (s *syncService) pullTodos(ctx context.Context, userID string) (int, error) {
	opCtx, cancel := s.opCtx(ctx)
	remoteTds, err := s.store.SelectTodos(opCtx, userID)
	cancel()
	if err != nil {
		return 0, err
	}

	var applied int
	for _, rt := range remoteTds {
		local, err := s.repos.Todos.GetByID(ctx, rt.ID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return applied, err
		default:
			if rt.UpdatedAt <= local.UpdatedAt {
				continue
			}
		}
		rt.SyncStatus = models.SyncStatusSynced
		if err := s.repos.Todos.Put(ctx, &rt); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (s *syncService) pullNotes(ctx context.Context, userID string) (int, error) {
	opCtx, cancel := s.opCtx(ctx)
	remoteNotes, err := s.store.SelectNotes(opCtx, userID)
	cancel()
	if err != nil {
		return 0, err
	}

	var applied int
	for _, rn := range remoteNotes {
		local, err := s.repos.Notes.GetByID(ctx, rn.ID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return applied, err
		default:
			if rn.UpdatedAt <= local.UpdatedAt {
				continue
			}
		}

		// The store allows one live note per owner; a second live note
		// arriving from the remote is resolved by timestamp, and the loser
		// is tombstoned pending so both sides converge.
		if !rn.Deleted {
			if current, err := s.repos.Notes.GetByOwner(ctx, userID); err == nil && current.ID != rn.ID {
				if rn.UpdatedAt > current.UpdatedAt {
					current.Deleted = true
					current.UpdatedAt = timex.NowMillis()
					current.SyncStatus = models.SyncStatusPending
					if err := s.repos.Notes.Put(ctx, current); err != nil {
						return applied, err
					}
				} else {
					rn.Deleted = true
					rn.UpdatedAt = timex.NowMillis()
					rn.SyncStatus = models.SyncStatusPending
					if err := s.repos.Notes.Put(ctx, &rn); err != nil {
						return applied, err
					}
					applied++
					continue
				}
			} else if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return applied, err
			}
		}

		rn.SyncStatus = models.SyncStatusSynced
		if err := s.repos.Notes.Put(ctx, &rn); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// cleanup drops tombstones whose deletion the remote store has confirmed.
// Best effort: a failure here only delays reclamation.
func (s *syncService) cleanup(ctx context.Context, userID string) {
	for name, fn := range map[string]func(context.Context, string) (int64, error){
		"categories": s.repos.Categories.DeleteSyncedTombstones,
		"bookmarks":  s.repos.Bookmarks.DeleteSyncedTombstones,
		"todos":      s.repos.Todos.DeleteSyncedTombstones,
		"notes":      s.repos.Notes.DeleteSyncedTombstones,
	} {
		n, err := fn(ctx, userID)
		if err != nil {
			s.log.Warn(ctx, "tombstone cleanup failed", "collection", name, "error", err.Error())
			continue
		}
		if n > 0 {
			s.log.Info(ctx, "removed confirmed tombstones", "collection", name, "count", n)
		}
	}
}
