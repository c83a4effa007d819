package transfer

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	xhtml "golang.org/x/net/html"
)

// netscapeHeader is the preamble every browser emits for bookmark files.
const netscapeHeader = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file. -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
`

// ExportHTML writes the collection in the Netscape bookmark format, one
// folder per category with uncategorized links at the top level.
func (s *Service) ExportHTML(ctx context.Context, w io.Writer) error {
	cats, bms, err := s.snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot collection: %w", err)
	}

	byCategory := make(map[string][]int)
	for i, b := range bms {
		byCategory[b.CategoryID] = append(byCategory[b.CategoryID], i)
	}

	var sb strings.Builder
	sb.WriteString(netscapeHeader)
	sb.WriteString("<DL><p>\n")

	writeLink := func(indent string, i int) {
		b := bms[i]
		sb.WriteString(indent)
		sb.WriteString(`<DT><A HREF="`)
		sb.WriteString(html.EscapeString(b.URL))
		sb.WriteString(`" ADD_DATE="`)
		fmt.Fprintf(&sb, "%d", b.CreatedAt/1000)
		sb.WriteString(`"`)
		if b.Icon != "" {
			sb.WriteString(` ICON="` + html.EscapeString(b.Icon) + `"`)
		}
		if len(b.Tags) > 0 {
			sb.WriteString(` TAGS="` + html.EscapeString(strings.Join(b.Tags, ",")) + `"`)
		}
		sb.WriteString(">")
		sb.WriteString(html.EscapeString(b.Title))
		sb.WriteString("</A>\n")
	}

	for _, i := range byCategory[""] {
		writeLink("    ", i)
	}
	for _, c := range cats {
		idx := byCategory[c.ID]
		if len(idx) == 0 {
			continue
		}
		sb.WriteString("    <DT><H3>")
		sb.WriteString(html.EscapeString(c.Name))
		sb.WriteString("</H3>\n    <DL><p>\n")
		for _, i := range idx {
			writeLink("        ", i)
		}
		sb.WriteString("    </DL><p>\n")
	}
	sb.WriteString("</DL><p>\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write bookmark file: %w", err)
	}
	return nil
}

// ImportHTML reads a Netscape bookmark file as exported by a browser.
// Folder names become categories (nested folders are flattened to the
// innermost name). Returns the number of bookmarks added.
func (s *Service) ImportHTML(ctx context.Context, r io.Reader) (int, error) {
	z := xhtml.NewTokenizer(r)

	var items []importedBookmark
	var folders []string
	var pending *importedBookmark
	var inH3 bool

	currentFolder := func() string {
		if len(folders) == 0 {
			return ""
		}
		return folders[len(folders)-1]
	}

	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			if z.Err() == io.EOF {
				return s.importBookmarks(ctx, items)
			}
			return 0, fmt.Errorf("failed to parse bookmark file: %w", z.Err())

		case xhtml.StartTagToken:
			tok := z.Token()
			switch tok.Data {
			case "h3":
				inH3 = true
				folders = append(folders, "")
			case "a":
				item := importedBookmark{Category: currentFolder()}
				for _, attr := range tok.Attr {
					switch strings.ToLower(attr.Key) {
					case "href":
						item.URL = attr.Val
					case "icon":
						item.Icon = attr.Val
					case "tags":
						for _, t := range strings.Split(attr.Val, ",") {
							if t = strings.TrimSpace(t); t != "" {
								item.Tags = append(item.Tags, t)
							}
						}
					}
				}
				pending = &item
			}

		case xhtml.TextToken:
			text := strings.TrimSpace(string(z.Text()))
			if text == "" {
				continue
			}
			if inH3 && len(folders) > 0 {
				folders[len(folders)-1] += text
			} else if pending != nil {
				pending.Title += text
			}

		case xhtml.EndTagToken:
			tok := z.Token()
			switch tok.Data {
			case "h3":
				inH3 = false
			case "a":
				if pending != nil && pending.URL != "" {
					items = append(items, *pending)
				}
				pending = nil
			case "dl":
				if len(folders) > 0 {
					folders = folders[:len(folders)-1]
				}
			}
		}
	}
}
