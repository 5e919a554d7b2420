package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrExists is returned by a conditional write when the blob already exists.
var ErrExists = os.ErrExist

// ErrClosed is returned when a blob is used after Close.
var ErrClosed = errors.New("blobstore: blob is closed")

// BlobStore is an abstraction for reading and writing named, immutable blobs
// such as encoded lists and commit pointers.
//
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible
	// when the returned writer is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at offset off. It returns io.EOF when fewer
	// bytes are available.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader over [off, off+length), clamped to Size.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a handle for streaming writes.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data to durable storage where the backend
	// supports it.
	Sync() error
}

// ConditionalPutter is an optional interface for stores that can create a
// blob only if it does not exist yet.
type ConditionalPutter interface {
	// PutIfNotExists writes data under name, or fails with an error matching
	// ErrExists if a blob with that name is already present.
	PutIfNotExists(ctx context.Context, name string, data []byte) error
}

// Aborter is an optional interface for WritableBlobs that can discard a
// pending write so the blob never becomes visible.
type Aborter interface {
	Abort() error
}

// Abort discards w if it supports Aborter and closes it otherwise.
func Abort(w WritableBlob) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	return w.Close()
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// ReadAll reads a whole blob into memory.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), data...), nil
	}

	buf := make([]byte, b.Size())
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == b.Size()) {
		return nil, err
	}
	return buf[:n], nil
}

// NewReaderAt adapts a Blob to io.ReaderAt, binding ctx to every read.
func NewReaderAt(ctx context.Context, b Blob) io.ReaderAt {
	return &ctxReaderAt{ctx: ctx, b: b}
}

type ctxReaderAt struct {
	ctx context.Context
	b   Blob
}

func (r *ctxReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return r.b.ReadAt(r.ctx, p, off)
}

// sliceRange returns the readable window of data for a range request.
func sliceRange(data []byte, off, length int64) ([]byte, error) {
	if off < 0 || length < 0 {
		return nil, errInvalidRange
	}
	if off >= int64(len(data)) {
		return nil, nil
	}
	end := min(off+length, int64(len(data)))
	return data[off:end], nil
}

// readAtSlice implements ReadAt semantics over an in-memory slice.
func readAtSlice(data, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errInvalidRange
	}
	if off >= int64(len(data)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

var errInvalidRange = errors.New("blobstore: negative offset or length")
