package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShiyouQi888/on-tab/internal/common"
)

// runSync executes a cycle in the foreground so the user sees the result.
func (a *App) runSync(ctx context.Context) {
	ident := a.auth.Current(ctx)
	if !ident.IsAuthenticated() {
		fmt.Fprintln(a.out, "Not signed in; nothing to sync. Use 'login' first.")
		return
	}

	n, err := a.sync.Sync(ctx)
	switch {
	case errors.Is(err, common.ErrSyncLocked):
		fmt.Fprintln(a.out, "Another process is syncing right now; try again shortly.")
	case err != nil:
		fmt.Fprintf(a.out, "Sync incomplete (%d records pulled): %v\n", n, err)
	default:
		fmt.Fprintf(a.out, "Synced, %d records pulled.\n", n)
	}
}
