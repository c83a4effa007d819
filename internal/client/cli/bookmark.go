package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShiyouQi888/on-tab/internal/client/models"
	"github.com/ShiyouQi888/on-tab/internal/client/repositories/bookmarks"
	"github.com/ShiyouQi888/on-tab/internal/client/services"
)

func (a *App) addBookmark(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: add <url>")
		return
	}
	pageURL := args[0]

	in := services.AddBookmarkInput{URL: pageURL}
	if meta, err := a.transfer.FetchMetadata(ctx, pageURL); err == nil {
		in.Title = meta.Title
		in.Icon = meta.Icon
	}
	if in.Title == "" {
		title, err := GetSimpleText(a.reader, "Title:", a.out)
		if err != nil {
			fmt.Fprintln(a.out, "input error:", err)
			return
		}
		in.Title = title
	}

	b, err := a.bookmarks.Add(ctx, in)
	if err != nil {
		fmt.Fprintln(a.out, "failed to add bookmark:", err)
		return
	}
	fmt.Fprintf(a.out, "Added %s (%s)\n", b.Title, b.ID)
}

// listBookmarks accepts free text plus #tag and @category filters, e.g.
//
//	list golang #reading @Work
func (a *App) listBookmarks(ctx context.Context, args []string) {
	var f bookmarks.Filter
	var words []string
	var categoryName string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "#"):
			f.Tag = strings.TrimPrefix(arg, "#")
		case strings.HasPrefix(arg, "@"):
			categoryName = strings.TrimPrefix(arg, "@")
		default:
			words = append(words, arg)
		}
	}
	f.Query = strings.Join(words, " ")

	if categoryName != "" {
		cats, err := a.categories.List(ctx)
		if err != nil {
			fmt.Fprintln(a.out, "failed to list categories:", err)
			return
		}
		for _, c := range cats {
			if strings.EqualFold(c.Name, categoryName) {
				f.CategoryID = c.ID
				break
			}
		}
		if f.CategoryID == "" {
			fmt.Fprintf(a.out, "No category named %q\n", categoryName)
			return
		}
	}

	items, total, err := a.bookmarks.List(ctx, f)
	if err != nil {
		fmt.Fprintln(a.out, "failed to list bookmarks:", err)
		return
	}
	for _, b := range items {
		a.printBookmarkLine(b)
	}
	if total > len(items) {
		fmt.Fprintf(a.out, "(%d of %d shown)\n", len(items), total)
	}
}

func (a *App) showBookmark(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: show <id>")
		return
	}
	b, err := a.bookmarks.Get(ctx, args[0])
	if err != nil {
		fmt.Fprintln(a.out, "failed to load bookmark:", err)
		return
	}
	fmt.Fprintf(a.out, "%s\n  url:   %s\n", b.Title, b.URL)
	if len(b.Tags) > 0 {
		fmt.Fprintf(a.out, "  tags:  %s\n", strings.Join(b.Tags, ", "))
	}
	if b.Notes != "" {
		fmt.Fprintf(a.out, "  notes: %s\n", b.Notes)
	}
	fmt.Fprintf(a.out, "  id:    %s  [%s]\n", b.ID, b.SyncStatus)
}

func (a *App) deleteBookmark(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: rm <id>")
		return
	}
	if err := a.bookmarks.Delete(ctx, args[0]); err != nil {
		fmt.Fprintln(a.out, "failed to delete bookmark:", err)
		return
	}
	fmt.Fprintln(a.out, "Deleted.")
}

// fileBookmark moves a bookmark into a category by name; "-" detaches it.
func (a *App) fileBookmark(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: file <id> <category>|-")
		return
	}
	id, categoryName := args[0], strings.Join(args[1:], " ")

	categoryID := ""
	if categoryName != "-" {
		cats, err := a.categories.List(ctx)
		if err != nil {
			fmt.Fprintln(a.out, "failed to list categories:", err)
			return
		}
		for _, c := range cats {
			if strings.EqualFold(c.Name, categoryName) {
				categoryID = c.ID
				break
			}
		}
		if categoryID == "" {
			fmt.Fprintf(a.out, "No category named %q\n", categoryName)
			return
		}
	}

	if _, err := a.bookmarks.Update(ctx, id, services.UpdateBookmarkInput{CategoryID: &categoryID}); err != nil {
		fmt.Fprintln(a.out, "failed to move bookmark:", err)
		return
	}
	fmt.Fprintln(a.out, "Filed.")
}

func (a *App) printBookmarkLine(b models.Bookmark) {
	line := fmt.Sprintf("%s  %s  %s", b.ID[:8], b.Title, b.URL)
	if len(b.Tags) > 0 {
		line += "  #" + strings.Join(b.Tags, " #")
	}
	fmt.Fprintln(a.out, line)
}
