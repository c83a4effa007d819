package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

func (a *App) status(ctx context.Context) string {
	ident := a.auth.Current(ctx)
	if ident.IsAuthenticated() {
		return ident.User().Email
	}
	return "guest"
}

// Root runs the command loop until EOF or an exit command.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "on-tab (type 'help' for commands)")
	scanner := bufio.NewScanner(a.reader)

	for {
		fmt.Fprintf(a.out, "ontab (%s)> ", a.status(ctx))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			a.help()

		case "register":
			a.register(ctx)
		case "login":
			a.login(ctx)
		case "logout":
			a.logout(ctx)
		case "whoami":
			a.whoami(ctx)

		case "add":
			a.addBookmark(ctx, args)
		case "list", "ls":
			a.listBookmarks(ctx, args)
		case "show":
			a.showBookmark(ctx, args)
		case "rm":
			a.deleteBookmark(ctx, args)
		case "file":
			a.fileBookmark(ctx, args)

		case "cat":
			a.category(ctx, args)
		case "todo":
			a.todo(ctx, args)
		case "note":
			a.note(ctx, args)

		case "sync":
			a.runSync(ctx)
		case "export":
			a.export(ctx, args)
		case "import":
			a.importFile(ctx, args)

		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return

		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}

func (a *App) help() {
	fmt.Fprintln(a.out, `Commands:
  add <url>                 save a bookmark (title/icon fetched from the page)
  list [query]              list bookmarks, optionally filtered
  show <id>                 show one bookmark
  rm <id>                   delete a bookmark
  file <id> <category>      move a bookmark into a category ("-" detaches)
  cat add|list|rm|rename|move   manage categories
  todo add|list|done|rm|move    manage todos
  note show|edit|clear      manage the scratchpad note
  register / login / logout / whoami
  sync                      run a sync cycle now
  export json|html <file>   export bookmarks
  import json|html <file>   import bookmarks
  exit`)
}
