package cache

import (
	"context"
	"testing"

	"github.com/hupe1980/biglist/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_EdgeCases(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	c := NewLRUBlockCache(50, rc) // Cache cap 50
	ctx := context.Background()
	k := Key{Path: "a", Block: 1}

	// 1. Item larger than capacity
	c.Set(ctx, k, make([]byte, 60))
	_, ok := c.Get(ctx, k)
	assert.False(t, ok, "Item > capacity should not be cached")
	assert.Zero(t, rc.MemoryUsage())

	// 2. Update existing item
	c.Set(ctx, k, make([]byte, 10))
	assert.Equal(t, int64(10), c.Size())

	c.Set(ctx, k, make([]byte, 20))
	assert.Equal(t, int64(20), c.Size())
	assert.Equal(t, int64(20), rc.MemoryUsage())

	c.Set(ctx, k, make([]byte, 5))
	assert.Equal(t, int64(5), c.Size())
	assert.Equal(t, int64(5), rc.MemoryUsage())

	// 3. Update rejected by the controller
	rc2 := resource.NewController(resource.Config{MemoryLimitBytes: 10})
	c2 := NewLRUBlockCache(50, rc2)
	c2.Set(ctx, k, make([]byte, 8))
	c2.Set(ctx, k, make([]byte, 12))

	val, ok := c2.Get(ctx, k)
	assert.True(t, ok)
	assert.Len(t, val, 8, "Update should have been rejected by the controller")

	// 4. Close returns everything
	require.NoError(t, c.Close())
	assert.Zero(t, rc.MemoryUsage())
	assert.Zero(t, c.Size())
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRUBlockCache(30, nil)
	ctx := context.Background()

	c.Set(ctx, Key{Path: "a", Block: 0}, make([]byte, 10))
	c.Set(ctx, Key{Path: "a", Block: 1}, make([]byte, 10))
	c.Set(ctx, Key{Path: "a", Block: 2}, make([]byte, 10))

	// Touch block 0 so block 1 becomes the eviction candidate.
	_, ok := c.Get(ctx, Key{Path: "a", Block: 0})
	require.True(t, ok)

	c.Set(ctx, Key{Path: "a", Block: 3}, make([]byte, 10))
	_, ok = c.Get(ctx, Key{Path: "a", Block: 1})
	assert.False(t, ok)
	_, ok = c.Get(ctx, Key{Path: "a", Block: 0})
	assert.True(t, ok)
	assert.Equal(t, int64(30), c.Size())
}

func TestLRU_Stats_Coverage(t *testing.T) {
	c := NewLRUBlockCache(100, nil)
	ctx := context.Background()
	k := Key{Path: "a", Block: 1}
	c.Set(ctx, k, []byte{1})
	c.Get(ctx, k)                        // Hit
	c.Get(ctx, Key{Path: "b", Block: 2}) // Miss

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_Invalidate(t *testing.T) {
	c := NewLRUBlockCache(100, nil)
	ctx := context.Background()
	c.Set(ctx, Key{Path: "x", Block: 1}, []byte("a"))
	c.Set(ctx, Key{Path: "x", Block: 2}, []byte("b"))
	c.Set(ctx, Key{Path: "y", Block: 1}, []byte("c"))

	c.Invalidate(func(k Key) bool {
		return k.Path == "x"
	})

	_, ok := c.Get(ctx, Key{Path: "x", Block: 1})
	assert.False(t, ok)
	_, ok = c.Get(ctx, Key{Path: "y", Block: 1})
	assert.True(t, ok)
}
