package categories

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
CREATE TABLE categories (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  icon TEXT NOT NULL DEFAULT '',
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

func sample(id, owner string, order int) *models.Category {
	return &models.Category{
		ID:         id,
		OwnerID:    owner,
		Name:       "cat-" + id,
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

	c := sample("id1", "u1", 0)
	require.NoError(t, r.Put(ctx, c))

	c.Name = "renamed"
	c.UpdatedAt = 200
	require.NoError(t, r.Put(ctx, c))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, int64(200), got.UpdatedAt)
	assert.Equal(t, int64(100), got.CreatedAt)
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListByOwner_OrderAndTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, sample("b", "u1", 1)))
	require.NoError(t, r.Put(ctx, sample("a", "u1", 0)))
	require.NoError(t, r.Put(ctx, sample("other", "u2", 0)))

	gone := sample("gone", "u1", 2)
	gone.Deleted = true
	require.NoError(t, r.Put(ctx, gone))

	list, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestListUnsynced_AndSetSyncStatus(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, sample("p1", "u1", 0)))
	require.NoError(t, r.Put(ctx, sample("p2", "u1", 1)))
	require.NoError(t, r.SetSyncStatus(ctx, "p1", models.SyncStatusSynced))

	list, err := r.ListUnsynced(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p2", list[0].ID)
}

func TestListUnsynced_IncludesTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, sample("d1", "u1", 0)))
	require.NoError(t, r.MarkDeleted(ctx, "d1", 200))

	list, err := r.ListUnsynced(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Deleted)
	assert.Equal(t, models.SyncStatusPending, list[0].SyncStatus)
}

func TestMarkDeleted(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, sample("id1", "u1", 0)))
	require.NoError(t, r.MarkDeleted(ctx, "id1", 300))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Equal(t, int64(300), got.UpdatedAt)

	// already tombstoned
	assert.ErrorIs(t, r.MarkDeleted(ctx, "id1", 400), common.ErrorNotFound)
	// never existed
	assert.ErrorIs(t, r.MarkDeleted(ctx, "nope", 400), common.ErrorNotFound)
}

func TestSetOrder_StampsPending(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	c := sample("id1", "u1", 0)
	require.NoError(t, r.Put(ctx, c))
	require.NoError(t, r.SetSyncStatus(ctx, "id1", models.SyncStatusSynced))

	require.NoError(t, r.SetOrder(ctx, "id1", 5, 500))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Order)
	assert.Equal(t, int64(500), got.UpdatedAt)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)
}

func TestReassignOwner(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	c1 := sample("g1", common.GuestOwnerID, 0)
	c1.SyncStatus = models.SyncStatusSynced
	require.NoError(t, r.Put(ctx, c1))
	require.NoError(t, r.Put(ctx, sample("g2", common.GuestOwnerID, 1)))
	require.NoError(t, r.Put(ctx, sample("u", "user-1", 0)))

	n, err := r.ReassignOwner(ctx, common.GuestOwnerID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := r.ListByOwner(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, c := range list {
		if c.ID == "g1" || c.ID == "g2" {
			assert.Equal(t, models.SyncStatusPending, c.SyncStatus)
		}
	}

	remaining, err := r.ListByOwner(ctx, common.GuestOwnerID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestHealMissingStatus(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	c := sample("id1", "u1", 0)
	c.SyncStatus = ""
	require.NoError(t, r.Put(ctx, c))
	synced := sample("id2", "u1", 1)
	synced.SyncStatus = models.SyncStatusSynced
	require.NoError(t, r.Put(ctx, synced))

	require.NoError(t, r.HealMissingStatus(ctx, "u1"))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)

	got, err = r.GetByID(ctx, "id2")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)
}

func TestDeleteSyncedTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	// tombstoned and confirmed: removed
	confirmed := sample("c1", "u1", 0)
	confirmed.Deleted = true
	confirmed.SyncStatus = models.SyncStatusSynced
	require.NoError(t, r.Put(ctx, confirmed))

	// tombstoned but still pending: kept
	pending := sample("c2", "u1", 1)
	pending.Deleted = true
	require.NoError(t, r.Put(ctx, pending))

	// live and synced: kept
	live := sample("c3", "u1", 2)
	live.SyncStatus = models.SyncStatusSynced
	require.NoError(t, r.Put(ctx, live))

	n, err := r.DeleteSyncedTombstones(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = r.GetByID(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = r.GetByID(ctx, "c2")
	assert.NoError(t, err)
	_, err = r.GetByID(ctx, "c3")
	assert.NoError(t, err)
}
