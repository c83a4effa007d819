package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ShiyouQi888/on-tab/internal/timex"
)

func (a *App) export(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: export json|html <file>")
		return
	}
	format, path := args[0], args[1]

	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintln(a.out, "failed to create file:", err)
		return
	}
	defer f.Close()

	switch format {
	case "json":
		err = a.transfer.ExportJSON(ctx, f, timex.NowMillis())
	case "html":
		err = a.transfer.ExportHTML(ctx, f)
	default:
		fmt.Fprintln(a.out, "Unknown format:", format)
		return
	}
	if err != nil {
		fmt.Fprintln(a.out, "export failed:", err)
		return
	}
	fmt.Fprintln(a.out, "Exported to", path)
}

func (a *App) importFile(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: import json|html <file>")
		return
	}
	format, path := args[0], args[1]

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(a.out, "failed to open file:", err)
		return
	}
	defer f.Close()

	var added int
	switch format {
	case "json":
		added, err = a.transfer.ImportJSON(ctx, f)
	case "html":
		added, err = a.transfer.ImportHTML(ctx, f)
	default:
		fmt.Fprintln(a.out, "Unknown format:", format)
		return
	}
	if err != nil {
		fmt.Fprintln(a.out, "import failed:", err)
		return
	}
	fmt.Fprintf(a.out, "Imported %d bookmarks.\n", added)
}
