package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSQLStore(t *testing.T) (*SQL, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&KVEntry{}))

	store, err := NewSQL(db)
	require.NoError(t, err)
	return store, db
}

func TestSQLUpsertAndGet(t *testing.T) {
	store, db := setupSQLStore(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	ctx := WithOrigin(context.Background(), "proc-1")
	require.NoError(t, store.Set(ctx, "tab", "sweetTreatsCart", `[{"id":"a"}]`))
	require.NoError(t, store.Set(ctx, "tab", "sweetTreatsCart", `[]`))

	value, ok, err := store.Get(ctx, "tab", "sweetTreatsCart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)

	var count int64
	require.NoError(t, db.Model(&KVEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "upsert must not duplicate rows")

	var entry KVEntry
	require.NoError(t, db.Take(&entry).Error)
	assert.Equal(t, "proc-1", entry.Origin)
	assert.True(t, entry.UpdatedAt.Equal(fixed))
}

func TestSQLMissingAndDelete(t *testing.T) {
	store, _ := setupSQLStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "tab", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "tab", "k", "v"))
	require.NoError(t, store.Delete(ctx, "tab", "k"))
	_, ok, err = store.Get(ctx, "tab", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Ping(ctx))
}

func TestSQLIsNotAWatcher(t *testing.T) {
	store, _ := setupSQLStore(t)
	var kv KV = store
	_, ok := kv.(Watcher)
	assert.False(t, ok)
}
