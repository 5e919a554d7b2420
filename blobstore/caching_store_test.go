package blobstore

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/hupe1980/biglist/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps a MemoryStore and counts backend reads.
type countingStore struct {
	*MemoryStore
	mu        sync.Mutex
	reads     int
	readBytes int
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: NewMemoryStore()}
}

func (s *countingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.MemoryStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &countingBlob{Blob: b, store: s}, nil
}

func (s *countingStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.readBytes
}

type countingBlob struct {
	Blob
	store *countingStore
}

func (b *countingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	n, err := b.Blob.ReadAt(ctx, p, off)
	b.store.mu.Lock()
	b.store.reads++
	b.store.readBytes += n
	b.store.mu.Unlock()
	return n, err
}

func TestCachingStore_ReadAt(t *testing.T) {
	ctx := context.Background()
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i % 255)
	}

	inner := newCountingStore()
	require.NoError(t, inner.Put(ctx, "test", data))

	store := NewCachingStore(inner, cache.NewLRUBlockCache(1024*1024, nil), 256)

	blob, err := store.Open(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), blob.Size())

	// 1. Read first block (bytes 0-100)
	buf := make([]byte, 100)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[:100], buf)

	reads, readBytes := inner.counts()
	assert.Equal(t, 1, reads)
	assert.Equal(t, 256, readBytes) // Read full block 0

	// 2. Same range again hits the cache
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	reads, _ = inner.counts()
	assert.Equal(t, 1, reads)

	// 3. Span blocks 0 and 1; only block 1 is fetched
	n, err = blob.ReadAt(ctx, buf, 200)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[200:300], buf)
	reads, readBytes = inner.counts()
	assert.Equal(t, 2, reads)
	assert.Equal(t, 512, readBytes)

	// 4. Blocks 2 and 3 are missing and contiguous: one backend read
	big := make([]byte, 600)
	n, err = blob.ReadAt(ctx, big, 400)
	require.NoError(t, err)
	assert.Equal(t, 600, n)
	assert.Equal(t, data[400:1000], big)
	reads, _ = inner.counts()
	assert.Equal(t, 3, reads)

	// 5. ReadRange is served from the cache
	rc, err := blob.ReadRange(ctx, 10, 2000)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data[10:], got)
	reads, _ = inner.counts()
	assert.Equal(t, 3, reads)
	require.NoError(t, blob.Close())
}

func TestCachingStore_SmallFile(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStore()
	require.NoError(t, inner.Put(ctx, "small", []byte("hello")))

	store := NewCachingStore(inner, cache.NewLRUBlockCache(1024, nil), 0)

	blob, err := store.Open(ctx, "small")
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := blob.ReadAt(ctx, buf, 0)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf[:n]))

	_, err = blob.ReadAt(ctx, buf, 5)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCachingStore_Invalidation(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStore()
	c := cache.NewLRUBlockCache(1024, nil)
	store := NewCachingStore(inner, c, 4)

	require.NoError(t, store.Put(ctx, "p", []byte("aaaa")))
	got, err := ReadAll(ctx, store, "p")
	require.NoError(t, err)
	assert.Equal(t, "aaaa", string(got))

	require.NoError(t, store.Put(ctx, "p", []byte("bbbb")))
	got, err = ReadAll(ctx, store, "p")
	require.NoError(t, err)
	assert.Equal(t, "bbbb", string(got))

	w, err := store.Create(ctx, "p")
	require.NoError(t, err)
	_, err = w.Write([]byte("cccc"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err = ReadAll(ctx, store, "p")
	require.NoError(t, err)
	assert.Equal(t, "cccc", string(got))

	require.NoError(t, store.Delete(ctx, "p"))
	_, err = store.Open(ctx, "p")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCachingStore_CacheDeclines(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStore()
	require.NoError(t, inner.Put(ctx, "x", []byte("0123456789")))

	// A cache smaller than one block never keeps anything.
	store := NewCachingStore(inner, cache.NewLRUBlockCache(2, nil), 4)
	blob, err := store.Open(ctx, "x")
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(buf[:n]))
}

func BenchmarkCachingStore_ReadAt(b *testing.B) {
	ctx := context.Background()
	inner := NewMemoryStore()
	_ = inner.Put(ctx, "bench", make([]byte, 1<<20))

	store := NewCachingStore(inner, cache.NewShardedLRUBlockCache(4<<20, nil), 4096)
	blob, _ := store.Open(ctx, "bench")
	buf := make([]byte, 8192)

	for b.Loop() {
		_, _ = blob.ReadAt(ctx, buf, 4096)
	}
}

func TestCachingStore_Bypass(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStore()
	require.NoError(t, inner.Put(ctx, "list/CURRENT", []byte("list/000001.bgl")))

	store := NewCachingStore(inner, cache.NewLRUBlockCache(1<<20, nil), 64, func(o *CachingOptions) {
		o.Bypass = func(name string) bool { return name == "list/CURRENT" }
	})

	for range 2 {
		data, err := ReadAll(ctx, store, "list/CURRENT")
		require.NoError(t, err)
		assert.Equal(t, "list/000001.bgl", string(data))
	}

	// A pointer changed behind the cache's back is seen immediately.
	require.NoError(t, inner.Put(ctx, "list/CURRENT", []byte("list/000002.bgl")))
	data, err := ReadAll(ctx, store, "list/CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "list/000002.bgl", string(data))
}
