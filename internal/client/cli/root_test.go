package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShiyouQi888/on-tab/internal/client/auth"
	"github.com/ShiyouQi888/on-tab/internal/client/localdb"
	"github.com/ShiyouQi888/on-tab/internal/client/services"
	"github.com/ShiyouQi888/on-tab/internal/client/transfer"
	"github.com/ShiyouQi888/on-tab/internal/logging"
)

// guestAuth resolves every call to the guest identity.
type guestAuth struct{}

func (guestAuth) SignUp(context.Context, string, string) error { return nil }
func (guestAuth) SignIn(context.Context, string, string) (*auth.User, error) {
	return nil, nil
}
func (guestAuth) SignOut(context.Context) error                { return nil }
func (guestAuth) Current(context.Context) auth.Identity        { return auth.Guest() }
func (guestAuth) EffectiveOwnerID(context.Context) string      { return auth.Guest().OwnerID() }
func (guestAuth) OnAuthStateChange(func(auth.Identity)) func() { return func() {} }

// testApp wires a REPL over an in-memory store with the given scripted
// input. The sync service is left nil; scripts must not run "sync".
func testApp(t *testing.T, script string) (*App, *bytes.Buffer) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	repos, err := localdb.Init(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.DB.Close() })

	lg := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	a := guestAuth{}
	trigger := services.NewSyncTrigger()
	bookmarkSvc := services.NewBookmarkService(a, repos.Bookmarks, trigger)
	categorySvc := services.NewCategoryService(a, repos.Categories, repos.Bookmarks, trigger)

	var out bytes.Buffer
	return &App{
		auth:       a,
		bookmarks:  bookmarkSvc,
		categories: categorySvc,
		todos:      services.NewTodoService(a, repos.Todos, trigger),
		notes:      services.NewNoteService(a, repos.Notes, trigger),
		transfer:   transfer.NewService(bookmarkSvc, categorySvc, transfer.NewMetadataFetcher(), lg),
		trigger:    trigger,
		reader:     bufio.NewReader(strings.NewReader(script)),
		out:        &out,
		log:        lg,
	}, &out
}

func TestRoot_HelpAndExit(t *testing.T) {
	app, out := testApp(t, "help\nexit\n")

	app.Root(context.Background())

	assert.Contains(t, out.String(), "Commands:")
	assert.Contains(t, out.String(), "Bye!")
}

func TestRoot_UnknownCommand(t *testing.T) {
	app, out := testApp(t, "frobnicate\nquit\n")

	app.Root(context.Background())

	assert.Contains(t, out.String(), "Unknown command: frobnicate")
}

func TestRoot_StopsOnEOF(t *testing.T) {
	app, out := testApp(t, "help\n")

	app.Root(context.Background())

	assert.Contains(t, out.String(), "Commands:")
}

func TestRoot_CategoryAndTodoFlow(t *testing.T) {
	script := strings.Join([]string{
		"cat add Work",
		"cat list",
		"todo add write the report",
		"todo list",
		"whoami",
		"exit",
	}, "\n") + "\n"
	app, out := testApp(t, script)

	app.Root(context.Background())

	s := out.String()
	assert.Contains(t, s, "Added Work")
	assert.Contains(t, s, "write the report")
	assert.Contains(t, s, "guest")
}

func TestRoot_PromptShowsGuest(t *testing.T) {
	app, out := testApp(t, "exit\n")

	app.Root(context.Background())

	assert.Contains(t, out.String(), "ontab (guest)> ")
}
