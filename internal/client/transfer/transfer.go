// Package transfer moves bookmark collections in and out of the local
// store: a JSON dump for backup/restore and the Netscape bookmark HTML
// format browsers produce, plus page metadata lookup for new bookmarks.
//
// Imports go through the regular services, so imported records get fresh
// IDs, pending sync status and a sync kick like any other local edit.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ShiyouQi888/on-tab/internal/client/models"
	"github.com/ShiyouQi888/on-tab/internal/client/repositories/bookmarks"
	"github.com/ShiyouQi888/on-tab/internal/client/services"
	"github.com/ShiyouQi888/on-tab/internal/logging"
)

// DumpVersion tags the JSON dump layout.
const DumpVersion = 1

// Dump is the portable JSON snapshot of a bookmark collection.
type Dump struct {
	Version    int            `json:"version"`
	ExportedAt int64          `json:"exported_at"`
	Categories []DumpCategory `json:"categories"`
	Bookmarks  []DumpBookmark `json:"bookmarks"`
}

type DumpCategory struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

type DumpBookmark struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Icon     string   `json:"icon,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// Service imports and exports the effective owner's collection.
type Service struct {
	bookmarks  services.BookmarkService
	categories services.CategoryService
	fetcher    *MetadataFetcher
	log        logging.Logger
}

func NewService(
	bookmarkSvc services.BookmarkService,
	categorySvc services.CategoryService,
	fetcher *MetadataFetcher,
	log logging.Logger,
) *Service {
	return &Service{
		bookmarks:  bookmarkSvc,
		categories: categorySvc,
		fetcher:    fetcher,
		log:        log,
	}
}

// snapshot collects the full live collection, paging through the
// bookmark list.
func (s *Service) snapshot(ctx context.Context) ([]models.Category, []models.Bookmark, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	var all []models.Bookmark
	for {
		page, total, err := s.bookmarks.List(ctx, bookmarks.Filter{Offset: len(all)})
		if err != nil {
			return nil, nil, err
		}
		all = append(all, page...)
		if len(all) >= total || len(page) == 0 {
			break
		}
	}
	return cats, all, nil
}

// ExportJSON writes the owner's collection as a JSON dump.
func (s *Service) ExportJSON(ctx context.Context, w io.Writer, exportedAt int64) error {
	cats, bms, err := s.snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot collection: %w", err)
	}

	byID := make(map[string]string, len(cats))
	dump := Dump{Version: DumpVersion, ExportedAt: exportedAt}
	for _, c := range cats {
		byID[c.ID] = c.Name
		dump.Categories = append(dump.Categories, DumpCategory{Name: c.Name, Icon: c.Icon})
	}
	for _, b := range bms {
		dump.Bookmarks = append(dump.Bookmarks, DumpBookmark{
			Title:    b.Title,
			URL:      b.URL,
			Icon:     b.Icon,
			Category: byID[b.CategoryID],
			Tags:     b.Tags,
			Notes:    b.Notes,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return fmt.Errorf("failed to encode dump: %w", err)
	}
	return nil
}

// ImportJSON loads a dump produced by ExportJSON. Categories are matched
// by name and created when missing; bookmarks whose URL already exists in
// the collection are skipped. Returns the number of bookmarks added.
func (s *Service) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	var dump Dump
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return 0, fmt.Errorf("failed to decode dump: %w", err)
	}
	if dump.Version > DumpVersion {
		return 0, fmt.Errorf("unsupported dump version %d", dump.Version)
	}

	items := make([]importedBookmark, 0, len(dump.Bookmarks))
	for _, b := range dump.Bookmarks {
		items = append(items, importedBookmark{
			Title:    b.Title,
			URL:      b.URL,
			Icon:     b.Icon,
			Category: b.Category,
			Tags:     b.Tags,
			Notes:    b.Notes,
		})
	}
	return s.importBookmarks(ctx, items)
}

type importedBookmark struct {
	Title    string
	URL      string
	Icon     string
	Category string
	Tags     []string
	Notes    string
}

func (s *Service) importBookmarks(ctx context.Context, items []importedBookmark) (int, error) {
	cats, existing, err := s.snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to snapshot collection: %w", err)
	}

	catByName := make(map[string]string, len(cats))
	for _, c := range cats {
		catByName[c.Name] = c.ID
	}
	seen := make(map[string]bool, len(existing))
	for _, b := range existing {
		seen[b.URL] = true
	}

	var added int
	for _, item := range items {
		if item.URL == "" || seen[item.URL] {
			continue
		}

		categoryID := ""
		if item.Category != "" {
			id, ok := catByName[item.Category]
			if !ok {
				c, err := s.categories.Add(ctx, services.AddCategoryInput{Name: item.Category})
				if err != nil {
					return added, fmt.Errorf("failed to create category %q: %w", item.Category, err)
				}
				id = c.ID
				catByName[item.Category] = id
			}
			categoryID = id
		}

		title := item.Title
		if title == "" {
			title = item.URL
		}
		_, err := s.bookmarks.Add(ctx, services.AddBookmarkInput{
			Title:      title,
			URL:        item.URL,
			Icon:       item.Icon,
			CategoryID: categoryID,
			Tags:       item.Tags,
			Notes:      item.Notes,
		})
		if err != nil {
			// Entries browsers emit are not always valid URLs; skip them
			// instead of aborting a long import.
			s.log.Warn(ctx, "skipping unimportable bookmark", "url", item.URL, "error", err.Error())
			continue
		}
		seen[item.URL] = true
		added++
	}
	return added, nil
}
