package bookmarks

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/ShiyouQi888/on-tab/internal/client/models"
	"github.com/ShiyouQi888/on-tab/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE bookmarks (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  url TEXT NOT NULL,
  icon TEXT NOT NULL DEFAULT '',
  category_id TEXT,
  tags TEXT NOT NULL DEFAULT '[]',
  notes TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted INTEGER NOT NULL DEFAULT 0,
  sync_status TEXT NOT NULL DEFAULT ''
);
`)
	require.NoError(t, err)

	return db
}

func sample(id, owner string, createdAt int64) *models.Bookmark {
	return &models.Bookmark{
		ID:         id,
		OwnerID:    owner,
		Title:      "title-" + id,
		URL:        "https://example.com/" + id,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
		SyncStatus: models.SyncStatusPending,
	}
}

func TestPut_RoundTripsTagsAndCategory(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	b := sample("id1", "u1", 100)
	b.Tags = []string{"go", "reading"}
	b.CategoryID = "cat-1"
	require.NoError(t, r.Put(ctx, b))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "reading"}, got.Tags)
	assert.Equal(t, "cat-1", got.CategoryID)
}

func TestPut_EmptyCategoryStoredAsNull(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, sample("id1", "u1", 100)))

	var categoryID sql.NullString
	err := db.QueryRow(`SELECT category_id FROM bookmarks WHERE id = ?`, "id1").Scan(&categoryID)
	require.NoError(t, err)
	assert.False(t, categoryID.Valid)

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "", got.CategoryID)
}

func TestListByOwner_PagingAndTotal(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Put(ctx, sample(fmt.Sprintf("id%d", i), "u1", int64(100+i))))
	}

	page, total, err := r.ListByOwner(ctx, "u1", Filter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	// newest first
	assert.Equal(t, "id4", page[0].ID)
	assert.Equal(t, "id3", page[1].ID)

	page, total, err = r.ListByOwner(ctx, "u1", Filter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 1)
	assert.Equal(t, "id0", page[0].ID)
}

func TestListByOwner_Filters(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	tagged := sample("tagged", "u1", 100)
	tagged.Tags = []string{"go"}
	require.NoError(t, r.Put(ctx, tagged))

	filed := sample("filed", "u1", 101)
	filed.CategoryID = "cat-1"
	require.NoError(t, r.Put(ctx, filed))

	named := sample("named", "u1", 102)
	named.Title = "The Go Blog"
	require.NoError(t, r.Put(ctx, named))

	byTag, _, err := r.ListByOwner(ctx, "u1", Filter{Tag: "go"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "tagged", byTag[0].ID)

	byCat, _, err := r.ListByOwner(ctx, "u1", Filter{CategoryID: "cat-1"})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, "filed", byCat[0].ID)

	byQuery, _, err := r.ListByOwner(ctx, "u1", Filter{Query: "go blog"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	assert.Equal(t, "named", byQuery[0].ID)
}

func TestListByOwner_SkipsTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, sample("live", "u1", 100)))
	require.NoError(t, r.Put(ctx, sample("dead", "u1", 101)))
	require.NoError(t, r.MarkDeleted(ctx, "dead", 200))

	list, total, err := r.ListByOwner(ctx, "u1", Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "live", list[0].ID)
}

func TestClearCategoryRef(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	b := sample("id1", "u1", 100)
	b.CategoryID = "cat-1"
	require.NoError(t, r.Put(ctx, b))
	require.NoError(t, r.SetSyncStatus(ctx, "id1", models.SyncStatusSynced))

	require.NoError(t, r.ClearCategoryRef(ctx, "id1", 200))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "", got.CategoryID)
	assert.Equal(t, int64(200), got.UpdatedAt)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)
}

func TestClearCategoryRefs_DetachesWholeCategory(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		b := sample(fmt.Sprintf("id%d", i), "u1", int64(100+i))
		b.CategoryID = "cat-1"
		require.NoError(t, r.Put(ctx, b))
	}
	other := sample("other", "u1", 103)
	other.CategoryID = "cat-2"
	require.NoError(t, r.Put(ctx, other))

	n, err := r.ClearCategoryRefs(ctx, "u1", "cat-1", 200)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := r.GetByID(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "cat-2", got.CategoryID)
}

func TestDeleteSyncedTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	confirmed := sample("c1", "u1", 100)
	confirmed.Deleted = true
	confirmed.SyncStatus = models.SyncStatusSynced
	require.NoError(t, r.Put(ctx, confirmed))

	pending := sample("c2", "u1", 101)
	pending.Deleted = true
	require.NoError(t, r.Put(ctx, pending))

	n, err := r.DeleteSyncedTombstones(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = r.GetByID(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = r.GetByID(ctx, "c2")
	assert.NoError(t, err)
}
