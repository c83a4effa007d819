package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ShiyouQi888/on-tab/internal/client/services"
)

func (a *App) category(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: cat add <name> | list | rm <id> | rename <id> <name> | move <id> <pos>")
		return
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "add":
		if len(rest) == 0 {
			fmt.Fprintln(a.out, "Usage: cat add <name>")
			return
		}
		c, err := a.categories.Add(ctx, services.AddCategoryInput{Name: strings.Join(rest, " ")})
		if err != nil {
			fmt.Fprintln(a.out, "failed to add category:", err)
			return
		}
		fmt.Fprintf(a.out, "Added %s (%s)\n", c.Name, c.ID)

	case "list":
		cats, err := a.categories.List(ctx)
		if err != nil {
			fmt.Fprintln(a.out, "failed to list categories:", err)
			return
		}
		for _, c := range cats {
			fmt.Fprintf(a.out, "%d  %s  %s\n", c.Order, c.ID[:8], c.Name)
		}

	case "rm":
		if len(rest) == 0 {
			fmt.Fprintln(a.out, "Usage: cat rm <id>")
			return
		}
		if err := a.categories.Delete(ctx, rest[0]); err != nil {
			fmt.Fprintln(a.out, "failed to delete category:", err)
			return
		}
		fmt.Fprintln(a.out, "Deleted; its bookmarks are now uncategorized.")

	case "rename":
		if len(rest) < 2 {
			fmt.Fprintln(a.out, "Usage: cat rename <id> <name>")
			return
		}
		c, err := a.categories.Rename(ctx, rest[0], strings.Join(rest[1:], " "))
		if err != nil {
			fmt.Fprintln(a.out, "failed to rename category:", err)
			return
		}
		fmt.Fprintf(a.out, "Renamed to %s\n", c.Name)

	case "move":
		if len(rest) < 2 {
			fmt.Fprintln(a.out, "Usage: cat move <id> <position>")
			return
		}
		pos, err := strconv.Atoi(rest[1])
		if err != nil {
			fmt.Fprintln(a.out, "position must be a number")
			return
		}
		if err := a.categories.Move(ctx, rest[0], pos); err != nil {
			fmt.Fprintln(a.out, "failed to move category:", err)
			return
		}
		fmt.Fprintln(a.out, "Moved.")

	default:
		fmt.Fprintln(a.out, "Unknown subcommand:", sub)
	}
}
