package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/docconv/internal/config"
)

func TestMemoryClient_SetGetDelete(t *testing.T) {
	c := NewMemoryClient(10)
	defer c.Close()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("3"), time.Minute))
	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_Expiry(t *testing.T) {
	c := NewMemoryClient(10)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), -time.Second))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	c.removeExpired(time.Now())
	assert.Equal(t, 0, c.Len())
}

func TestMemoryClient_EvictsAtCapacity(t *testing.T) {
	c := NewMemoryClient(2)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "new", []byte("3"), time.Hour))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Overwriting an existing key does not evict.
	require.NoError(t, c.Set(ctx, "long", []byte("4"), time.Hour))
	assert.Equal(t, 2, c.Len())
}

func TestMemoryClient_CloseTwice(t *testing.T) {
	c := NewMemoryClient(1)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestNew_Drivers(t *testing.T) {
	c, err := New(config.CacheConfig{Driver: "memory", MaxEntries: 5})
	require.NoError(t, err)
	assert.IsType(t, &MemoryClient{}, c)
	require.NoError(t, c.Close())

	_, err = New(config.CacheConfig{Driver: "memcached"})
	assert.Error(t, err)
}

func TestFileKey(t *testing.T) {
	mtime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	a := FileKey("imgcount", "/data/a.pdf", 100, mtime)
	assert.Equal(t, a, FileKey("imgcount", "/data/a.pdf", 100, mtime))
	assert.Regexp(t, `^imgcount:[0-9a-f]{64}$`, a)

	assert.NotEqual(t, a, FileKey("imgcount", "/data/a.pdf", 101, mtime))
	assert.NotEqual(t, a, FileKey("imgcount", "/data/a.pdf", 100, mtime.Add(time.Second)))
	assert.NotEqual(t, a, FileKey("imgcount", "/data/b.pdf", 100, mtime))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "a:b:c", CacheKey("a", "b", "c"))
	assert.Equal(t, "a", CacheKey("a"))
}
