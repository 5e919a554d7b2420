package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/biglist/internal/fs"
	"github.com/hupe1980/biglist/internal/mmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBlobStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	ctx := context.Background()

	// 1. Create a blob
	blobName := "numbers/000001.bgl"
	data := []byte("hello world, this is a test blob for biglist")

	w, err := store.Create(ctx, blobName)
	require.NoError(t, err)

	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	// Not visible before Close
	_, err = store.Open(ctx, blobName)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())
	require.ErrorIs(t, w.Close(), ErrClosed)

	// Verify file exists on disk
	_, err = os.Stat(filepath.Join(tmpDir, "numbers", "000001.bgl"))
	require.NoError(t, err)

	// 2. Open and ReadAt
	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6) // "world"
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	// 3. ReadRange
	rangeReader, err := blob.ReadRange(ctx, 13, 4)
	require.NoError(t, err)
	rangeContent, err := io.ReadAll(rangeReader)
	require.NoError(t, err)
	require.NoError(t, rangeReader.Close())
	require.Equal(t, "this", string(rangeContent))

	// 4. List
	require.NoError(t, store.Put(ctx, "numbers/000002.bgl", nil))
	require.NoError(t, store.Put(ctx, "other", []byte("x")))

	blobs, err := store.List(ctx, "numbers/")
	require.NoError(t, err)
	require.Equal(t, []string{blobName, "numbers/000002.bgl"}, blobs)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	// 5. Delete
	require.NoError(t, store.Delete(ctx, blobName))
	require.NoError(t, store.Delete(ctx, blobName), "deleting a missing blob is not an error")

	blobsAfter, err := store.List(ctx, "numbers/")
	require.NoError(t, err)
	require.Equal(t, []string{"numbers/000002.bgl"}, blobsAfter)

	_, err = store.Open(ctx, blobName)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBlobStore_ReadRange_Boundaries(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	data := []byte("0123456789")
	require.NoError(t, store.Put(ctx, "boundary.bin", data))

	blob, err := store.Open(ctx, "boundary.bin")
	require.NoError(t, err)

	read := func(off, length int64) string {
		t.Helper()
		r, err := blob.ReadRange(ctx, off, length)
		require.NoError(t, err)
		defer r.Close()
		content, err := io.ReadAll(r)
		require.NoError(t, err)
		return string(content)
	}

	assert.Equal(t, "0123456789", read(0, 10))
	assert.Equal(t, "89", read(8, 5))
	assert.Empty(t, read(20, 5))

	_, err = blob.ReadRange(ctx, -1, 5)
	assert.Error(t, err)

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	mapped, err := blob.(Mappable).Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, mapped)
	require.NoError(t, blob.(*localBlob).Advise(mmap.AccessSequential))

	require.NoError(t, blob.Close())
	_, err = blob.ReadAt(ctx, buf, 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = blob.ReadRange(ctx, 0, 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLocalBlobStore_EmptyBlob(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "empty", nil))
	got, err := ReadAll(ctx, store, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalBlobStore_InvalidNames(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"", "/", ".hidden", "dir/.tmp"} {
		assert.Error(t, store.Put(ctx, name, []byte("x")), name)
	}

	// Traversal is confined to the root.
	require.NoError(t, store.Put(ctx, "../escape", []byte("x")))
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"escape"}, names)
}

func TestLocalBlobStore_FailedWriteLeavesTargetUntouched(t *testing.T) {
	root := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	injected := errors.New("disk full")
	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: 4, Err: injected})
	store := newLocalStore(root, ffs)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(root, "list"), []byte("old"), 0o644))

	err := store.Put(ctx, "list", []byte("new content"))
	require.ErrorIs(t, err, injected)

	got, err := ReadAll(ctx, store, "list")
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be removed")
}

func TestLocalBlobStore_FailedSync(t *testing.T) {
	root := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	store := newLocalStore(root, ffs)
	ctx := context.Background()

	err := store.Put(ctx, "list", []byte("data"))
	require.Error(t, err)

	_, err = store.Open(ctx, "list")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBlobStore_Canceled(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Open(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Create(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalBlobStore_FailedRename(t *testing.T) {
	root := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: -1, FailOnRename: true})
	store := newLocalStore(root, ffs)
	ctx := context.Background()

	err := store.Put(ctx, "list", []byte("data"))
	require.ErrorIs(t, err, fs.ErrInjected)
	assert.Equal(t, int64(4), ffs.Written())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary file must be removed")
}
