package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

func (a *App) todo(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: todo add <text> | list | done <id> | rm <id> | move <id> <pos>")
		return
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "add":
		if len(rest) == 0 {
			fmt.Fprintln(a.out, "Usage: todo add <text>")
			return
		}
		t, err := a.todos.Add(ctx, strings.Join(rest, " "))
		if err != nil {
			fmt.Fprintln(a.out, "failed to add todo:", err)
			return
		}
		fmt.Fprintf(a.out, "Added (%s)\n", t.ID)

	case "list":
		items, err := a.todos.List(ctx)
		if err != nil {
			fmt.Fprintln(a.out, "failed to list todos:", err)
			return
		}
		for _, t := range items {
			mark := " "
			if t.Completed {
				mark = "x"
			}
			fmt.Fprintf(a.out, "[%s] %s  %s\n", mark, t.ID[:8], t.Content)
		}

	case "done":
		if len(rest) == 0 {
			fmt.Fprintln(a.out, "Usage: todo done <id>")
			return
		}
		t, err := a.todos.Toggle(ctx, rest[0])
		if err != nil {
			fmt.Fprintln(a.out, "failed to toggle todo:", err)
			return
		}
		if t.Completed {
			fmt.Fprintln(a.out, "Done.")
		} else {
			fmt.Fprintln(a.out, "Reopened.")
		}

	case "rm":
		if len(rest) == 0 {
			fmt.Fprintln(a.out, "Usage: todo rm <id>")
			return
		}
		if err := a.todos.Delete(ctx, rest[0]); err != nil {
			fmt.Fprintln(a.out, "failed to delete todo:", err)
			return
		}
		fmt.Fprintln(a.out, "Deleted.")

	case "move":
		if len(rest) < 2 {
			fmt.Fprintln(a.out, "Usage: todo move <id> <position>")
			return
		}
		pos, err := strconv.Atoi(rest[1])
		if err != nil {
			fmt.Fprintln(a.out, "position must be a number")
			return
		}
		if err := a.todos.Move(ctx, rest[0], pos); err != nil {
			fmt.Fprintln(a.out, "failed to move todo:", err)
			return
		}
		fmt.Fprintln(a.out, "Moved.")

	default:
		fmt.Fprintln(a.out, "Unknown subcommand:", sub)
	}
}
