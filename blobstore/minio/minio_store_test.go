package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/hupe1980/biglist/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MinIO integration test in short mode")
	}

	endpoint := envOr("MINIO_ENDPOINT", "localhost:9000")
	accessKey := envOr("MINIO_ACCESS_KEY", "minioadmin")
	secretKey := envOr("MINIO_SECRET_KEY", "minioadmin")
	bucket := "test-biglist"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	_, err = client.ListBuckets(ctx)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "numbers/000001.bgl", data))
	require.NoError(t, store.Put(ctx, "numbers2/000001.bgl", data))

	blob, err := store.Open(ctx, "numbers/000001.bgl")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)

	// Short read at the tail.
	n, err = blob.ReadAt(ctx, buf, 12)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "world", string(buf[:n]))

	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(part))
	require.NoError(t, rc.Close())

	rc, err = blob.ReadRange(ctx, 100, 5)
	require.NoError(t, err)
	part, err = io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, part)
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "numbers/")
	require.NoError(t, err)
	assert.Equal(t, []string{"numbers/000001.bgl"}, names)

	require.NoError(t, store.Delete(ctx, "numbers/000001.bgl"))
	require.NoError(t, store.Delete(ctx, "numbers/000001.bgl"))

	_, err = store.Open(ctx, "numbers/000001.bgl")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	// Streaming writes
	wb, err := store.Create(ctx, "stream.txt")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	blob3, err := store.Open(ctx, "stream.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(13), blob3.Size())
	require.NoError(t, blob3.Close())

	// Cleanup
	_ = store.Delete(ctx, "stream.txt")
	_ = store.Delete(ctx, "numbers2/000001.bgl")
}

func TestMinioStore_Keys(t *testing.T) {
	s := NewStore(nil, "b", "/lists/")
	assert.Equal(t, "lists/numbers/CURRENT", s.key("numbers/CURRENT"))

	s = NewStore(nil, "b", "")
	assert.Equal(t, "numbers/CURRENT", s.key("numbers/CURRENT"))
}

func TestMinioWritableBlob_Abort(t *testing.T) {
	pr, pw := io.Pipe()
	blob := &minioWritableBlob{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := io.ReadAll(pr)
		blob.done <- err
	}()

	_, err := blob.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, blob.Abort())
	assert.ErrorIs(t, blob.Close(), ErrUploadAborted)

	_, err = blob.Write([]byte("late"))
	assert.ErrorIs(t, err, blobstore.ErrClosed)
}
