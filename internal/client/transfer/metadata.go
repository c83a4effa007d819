package transfer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	xhtml "golang.org/x/net/html"
)

// PageMeta is what a page tells us about itself.
type PageMeta struct {
	Title string
	Icon  string
}

// MetadataFetcher resolves a page title and favicon for new bookmarks.
type MetadataFetcher struct {
	client *resty.Client
}

func NewMetadataFetcher() *MetadataFetcher {
	return &MetadataFetcher{
		client: resty.New().
			SetTimeout(10 * time.Second).
			SetHeader("User-Agent", "on-tab/1.0"),
	}
}

// Fetch downloads pageURL and extracts its title and icon. A page that
// declares no icon falls back to the Google favicon service, so the
// returned icon is always usable.
func (f *MetadataFetcher) Fetch(ctx context.Context, pageURL string) (*PageMeta, error) {
	base, err := url.Parse(pageURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("invalid page url %q", pageURL)
	}

	meta := &PageMeta{}
	resp, err := f.client.R().SetContext(ctx).Get(pageURL)
	if err == nil && !resp.IsError() {
		title, icon := parseHead(string(resp.Body()))
		meta.Title = title
		if icon != "" {
			if ref, err := url.Parse(icon); err == nil {
				meta.Icon = base.ResolveReference(ref).String()
			}
		}
	}

	if meta.Title == "" {
		meta.Title = base.Hostname()
	}
	if meta.Icon == "" {
		meta.Icon = fmt.Sprintf("https://www.google.com/s2/favicons?domain=%s&sz=64", base.Hostname())
	}
	return meta, nil
}

// parseHead pulls <title> and the first icon <link> out of an HTML
// document. Parsing stops at the end of head; body content is irrelevant.
func parseHead(doc string) (title, icon string) {
	z := xhtml.NewTokenizer(strings.NewReader(doc))
	var inTitle bool
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return title, icon

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "title":
				inTitle = true
			case "link":
				var rel, href string
				for _, attr := range tok.Attr {
					switch strings.ToLower(attr.Key) {
					case "rel":
						rel = strings.ToLower(attr.Val)
					case "href":
						href = attr.Val
					}
				}
				if icon == "" && href != "" && strings.Contains(rel, "icon") {
					icon = href
				}
			case "body":
				return title, icon
			}

		case xhtml.TextToken:
			if inTitle && title == "" {
				title = strings.TrimSpace(string(z.Text()))
			}

		case xhtml.EndTagToken:
			if z.Token().Data == "title" {
				inTitle = false
			}
		}
	}
}

// Fetch is also exposed through the transfer service for callers that
// already hold one.
func (s *Service) FetchMetadata(ctx context.Context, pageURL string) (*PageMeta, error) {
	return s.fetcher.Fetch(ctx, pageURL)
}
