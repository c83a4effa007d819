package todos

import (
	"context"
	"database/sql"
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
CREATE TABLE todos (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  content TEXT NOT NULL,
  completed INTEGER NOT NULL DEFAULT 0,
  ord INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted INTEGER NOT NULL DEFAULT 0,
  sync_status TEXT NOT NULL DEFAULT ''
);
`)
	require.NoError(t, err)

	return db
}

func sample(id, owner string, order int) *models.Todo {
	return &models.Todo{
		ID:         id,
		OwnerID:    owner,
		Content:    "todo-" + id,
		Order:      order,
		CreatedAt:  100,
		UpdatedAt:  100,
		SyncStatus: models.SyncStatusPending,
	}
}

func TestPut_InsertAndOverwrite(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	item := sample("id1", "u1", 0)
	require.NoError(t, r.Put(ctx, item))

	item.Completed = true
	item.UpdatedAt = 200
	require.NoError(t, r.Put(ctx, item))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, int64(200), got.UpdatedAt)
}

func TestListByOwner_OrderAndTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, sample("b", "u1", 1)))
	require.NoError(t, r.Put(ctx, sample("a", "u1", 0)))
	require.NoError(t, r.Put(ctx, sample("gone", "u1", 2)))
	require.NoError(t, r.MarkDeleted(ctx, "gone", 200))

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestSetOrder_StampsPending(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, sample("id1", "u1", 0)))
	require.NoError(t, r.SetSyncStatus(ctx, "id1", models.SyncStatusSynced))

	require.NoError(t, r.SetOrder(ctx, "id1", 3, 300))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Order)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)
}

func TestMarkDeleted_MissingRow(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	assert.ErrorIs(t, r.MarkDeleted(context.Background(), "nope", 100), common.ErrorNotFound)
}

func TestReassignOwner_StampsPending(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	g := sample("g1", common.GuestOwnerID, 0)
	g.SyncStatus = models.SyncStatusSynced
	require.NoError(t, r.Put(ctx, g))

	n, err := r.ReassignOwner(ctx, common.GuestOwnerID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := r.GetByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.OwnerID)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)
}

func TestDeleteSyncedTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	confirmed := sample("c1", "u1", 0)
	confirmed.Deleted = true
	confirmed.SyncStatus = models.SyncStatusSynced
	require.NoError(t, r.Put(ctx, confirmed))

	n, err := r.DeleteSyncedTombstones(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = r.GetByID(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
