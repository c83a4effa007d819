package transfer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShiyouQi888/on-tab/internal/client/repositories/bookmarks"
	"github.com/ShiyouQi888/on-tab/internal/client/services"
)

const sampleBookmarkFile = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file. -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><A HREF="https://top.example.com" ADD_DATE="1700000000">Top level</A>
    <DT><H3 ADD_DATE="1700000000">Work</H3>
    <DL><p>
        <DT><A HREF="https://docs.example.com" TAGS="ref,daily">Docs</A>
        <DT><H3>Inner</H3>
        <DL><p>
            <DT><A HREF="https://inner.example.com">Nested link</A>
        </DL><p>
        <DT><A HREF="https://board.example.com" ICON="data:image/png;base64,xyz">Board</A>
    </DL><p>
    <DT><A HREF="">No href</A>
</DL><p>
`

func TestImportHTML(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	added, err := f.svc.ImportHTML(ctx, strings.NewReader(sampleBookmarkFile))
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	list, _, err := f.bookmarks.List(ctx, bookmarks.Filter{})
	require.NoError(t, err)
	byURL := make(map[string]int, len(list))
	for i, b := range list {
		byURL[b.URL] = i
	}

	cats, err := f.categories.List(ctx)
	require.NoError(t, err)
	catName := make(map[string]string, len(cats))
	for _, c := range cats {
		catName[c.ID] = c.Name
	}

	top := list[byURL["https://top.example.com"]]
	assert.Equal(t, "Top level", top.Title)
	assert.Equal(t, "", top.CategoryID)

	docs := list[byURL["https://docs.example.com"]]
	assert.Equal(t, "Work", catName[docs.CategoryID])
	assert.Equal(t, []string{"ref", "daily"}, docs.Tags)

	// nested folders flatten to the innermost name
	nested := list[byURL["https://inner.example.com"]]
	assert.Equal(t, "Inner", catName[nested.CategoryID])

	// after the inner folder closes, links belong to the outer one again
	board := list[byURL["https://board.example.com"]]
	assert.Equal(t, "Work", catName[board.CategoryID])
	assert.Equal(t, "data:image/png;base64,xyz", board.Icon)
}

func TestExportHTML_ImportsBack(t *testing.T) {
	src := setup(t)
	ctx := context.Background()

	c, err := src.categories.Add(ctx, services.AddCategoryInput{Name: "Reading"})
	require.NoError(t, err)
	_, err = src.bookmarks.Add(ctx, services.AddBookmarkInput{
		Title: "Essays & notes", URL: "https://essays.example.com?a=1&b=2",
		CategoryID: c.ID, Tags: []string{"long"},
	})
	require.NoError(t, err)
	_, err = src.bookmarks.Add(ctx, services.AddBookmarkInput{
		Title: "Loose link", URL: "https://loose.example.com",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.svc.ExportHTML(ctx, &buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE NETSCAPE-Bookmark-file-1>"))
	assert.Contains(t, out, "<DT><H3>Reading</H3>")
	assert.Contains(t, out, "Essays &amp; notes")

	dst := setup(t)
	added, err := dst.svc.ImportHTML(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	list, _, err := dst.bookmarks.List(ctx, bookmarks.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	byURL := make(map[string]int, len(list))
	for i, b := range list {
		byURL[b.URL] = i
	}
	essay := list[byURL["https://essays.example.com?a=1&b=2"]]
	assert.Equal(t, "Essays & notes", essay.Title)
	assert.Equal(t, []string{"long"}, essay.Tags)

	cats, err := dst.categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Reading", cats[0].Name)
	assert.Equal(t, cats[0].ID, essay.CategoryID)
}
