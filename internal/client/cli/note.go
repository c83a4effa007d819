package cli

import (
	"context"
	"fmt"
)

func (a *App) note(ctx context.Context, args []string) {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "show":
		n, err := a.notes.Get(ctx)
		if err != nil {
			fmt.Fprintln(a.out, "failed to load note:", err)
			return
		}
		if n.Content == "" {
			fmt.Fprintln(a.out, "(empty)")
			return
		}
		fmt.Fprintln(a.out, n.Content)

	case "edit":
		content, err := GetMultiline(a.reader, "Note:", a.out)
		if err != nil {
			fmt.Fprintln(a.out, "input error:", err)
			return
		}
		if _, err := a.notes.Update(ctx, content); err != nil {
			fmt.Fprintln(a.out, "failed to save note:", err)
			return
		}
		fmt.Fprintln(a.out, "Saved.")

	case "clear":
		if err := a.notes.Clear(ctx); err != nil {
			fmt.Fprintln(a.out, "failed to clear note:", err)
			return
		}
		fmt.Fprintln(a.out, "Cleared.")

	default:
		fmt.Fprintln(a.out, "Usage: note show | edit | clear")
	}
}
