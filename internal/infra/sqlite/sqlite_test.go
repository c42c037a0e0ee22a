package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err, "Open()")
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Join(dir, "state.db"))
	assert.NoError(t, err, "state.db should exist")
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Ping())
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, "userLevelData", `{"level":2}`))
	require.NoError(t, db.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()

	v, ok, err := db.Get(ctx, "userLevelData")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"level":2}`, v)
}

// ─── Key-Value ──────────────────────────────────────────────────────────────

func TestGet_Missing(t *testing.T) {
	db := newTestDB(t)

	v, ok, err := db.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSet_Overwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "selectedBadge", `"rookie"`))
	require.NoError(t, db.Set(ctx, "selectedBadge", `"master"`))

	v, ok, err := db.Get(ctx, "selectedBadge")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"master"`, v)
}

func TestSetMany_WritesAll(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pairs := map[string]string{
		"userAchievements":      `{"portalUses":1}`,
		"completedAchievements": `[]`,
		"lastLoginDate":         `"2025-07-01"`,
	}
	require.NoError(t, db.SetMany(ctx, pairs))

	for k, want := range pairs {
		got, ok, err := db.Get(ctx, k)
		require.NoError(t, err)
		assert.True(t, ok, k)
		assert.Equal(t, want, got, k)
	}

	keys, err := db.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"completedAchievements", "lastLoginDate", "userAchievements"}, keys)
}

func TestSetMany_Empty(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.SetMany(context.Background(), nil))
}

func TestSetMany_CancelledContextWritesNothing(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.SetMany(ctx, map[string]string{"a": "1", "b": "2"})
	require.Error(t, err)

	_, ok, err := db.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "favorites", `[1,2]`))
	require.NoError(t, db.Remove(ctx, "favorites"))
	require.NoError(t, db.Remove(ctx, "favorites"), "second remove is a no-op")

	_, ok, err := db.Get(ctx, "favorites")
	require.NoError(t, err)
	assert.False(t, ok)
}
