package cache

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// setupCache creates a cache over an in-memory SQLite database.
func setupCache(t *testing.T) *Cache {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c, err := New(db)
	require.NoError(t, err)
	return c
}

func TestCache_GetSet_RoundTrip(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "yt:video:vid1", []byte("PT3M20S"), time.Hour))

	got, ok := c.Get(ctx, "yt:video:vid1")
	assert.True(t, ok)
	assert.Equal(t, []byte("PT3M20S"), got)
}

func TestCache_Get_Missing(t *testing.T) {
	c := setupCache(t)

	_, ok := c.Get(context.Background(), "yt:video:nope")
	assert.False(t, ok)
}

func TestCache_Get_Expired(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), -time.Minute))

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCache_Set_Overwrites(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("old"), time.Hour))
	require.NoError(t, c.Set(ctx, "k", []byte("new"), time.Hour))

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestCache_Prune(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "fresh", []byte("v"), time.Hour))
	require.NoError(t, c.Set(ctx, "stale1", []byte("v"), -time.Minute))
	require.NoError(t, c.Set(ctx, "stale2", []byte("v"), -time.Minute))

	removed, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, ok := c.Get(ctx, "fresh")
	assert.True(t, ok)
}

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Hour))
	got, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}
