package persistence

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/biglist"
	"github.com/hupe1980/biglist/blobstore"
	"github.com/hupe1980/biglist/internal/conv"
	ihash "github.com/hupe1980/biglist/internal/hash"
	"github.com/hupe1980/biglist/resource"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultReadChunkSize is the size of one ranged read during Load.
	DefaultReadChunkSize = 4 << 20
	// DefaultParallelism is the number of ranged reads in flight during Load.
	DefaultParallelism = 4

	writeBufferSize = 256 << 10
)

// Options configures a Store.
type Options struct {
	// Controller rate-limits IO, caps concurrent range fetches through its
	// background slots and accounts load buffers against its memory budget.
	// nil means unlimited.
	Controller *resource.Controller

	// Logger receives save, load and publish events.
	// Default: biglist.NoopLogger()
	Logger *biglist.Logger

	// Metrics receives save and load timings.
	// Default: biglist.NoopMetricsCollector{}
	Metrics biglist.MetricsCollector

	// ReadChunkSize is the size of one ranged read during Load. It is rounded
	// down to a whole number of elements.
	// Default: 4MB
	ReadChunkSize int

	// Parallelism is the number of ranged reads in flight during Load.
	// Default: 4
	Parallelism int
}

// Store saves and loads lists as blobs of a blobstore.BlobStore.
type Store struct {
	blobs blobstore.BlobStore
	opts  Options
}

// NewStore creates a Store on top of blobs.
func NewStore(blobs blobstore.BlobStore, optFns ...func(o *Options)) *Store {
	opts := Options{
		Logger:        biglist.NoopLogger(),
		Metrics:       biglist.NoopMetricsCollector{},
		ReadChunkSize: DefaultReadChunkSize,
		Parallelism:   DefaultParallelism,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = biglist.NoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = biglist.NoopMetricsCollector{}
	}
	if opts.ReadChunkSize <= 0 {
		opts.ReadChunkSize = DefaultReadChunkSize
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultParallelism
	}

	return &Store{blobs: blobs, opts: opts}
}

// Blobs returns the underlying blob store.
func (s *Store) Blobs() blobstore.BlobStore {
	return s.blobs
}

// Save encodes seq into the blob name. The blob appears only if Save
// succeeds; a failed write is aborted.
func Save[T biglist.Element](ctx context.Context, s *Store, name string, seq biglist.Sequence[T]) error {
	start := time.Now()
	count := seq.Len()

	n, err := s.write(ctx, name, func(w io.Writer) (int64, error) {
		return Encode(w, seq)
	})

	s.opts.Logger.LogSave(ctx, name, count, n, err)
	s.opts.Metrics.RecordSave(count, n, time.Since(start), err)
	return err
}

// write streams encode's output into a new blob.
func (s *Store) write(ctx context.Context, name string, encode func(io.Writer) (int64, error)) (int64, error) {
	wb, err := s.blobs.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", name, err)
	}

	bw := bufio.NewWriterSize(resource.NewRateLimitedWriter(ctx, wb, s.opts.Controller), writeBufferSize)
	n, err := encode(bw)
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		_ = blobstore.Abort(wb)
		return n, fmt.Errorf("save %s: %w", name, err)
	}
	if err := wb.Close(); err != nil {
		return n, fmt.Errorf("save %s: %w", name, err)
	}
	return n, nil
}

// Load decodes the blob name into a new list configured with opts.
//
// Memory-mapped blobs are decoded in place. Other blobs are fetched with
// ranged reads, Parallelism at a time, and decoded in order.
func Load[T biglist.Element](ctx context.Context, s *Store, name string, opts ...biglist.Option) (*biglist.BigList[T], error) {
	start := time.Now()

	list, size, err := load[T](ctx, s, name, opts)
	if err != nil {
		err = fmt.Errorf("load %s: %w", name, err)
	}

	var count int64
	if list != nil {
		count = list.Len()
	}
	s.opts.Logger.LogLoad(ctx, name, count, size, err)
	s.opts.Metrics.RecordLoad(count, size, time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return list, nil
}

func load[T biglist.Element](ctx context.Context, s *Store, name string, opts []biglist.Option) (*biglist.BigList[T], int64, error) {
	blob, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = blob.Close() }()

	size := blob.Size()
	if size < HeaderSize+TrailerSize {
		return nil, size, fmt.Errorf("%w: %d bytes", ErrTruncated, size)
	}

	var hdr [HeaderSize]byte
	if _, err := blob.ReadAt(ctx, hdr[:], 0); err != nil {
		return nil, size, err
	}
	h, err := readHeader(bytes.NewReader(hdr[:]))
	if err != nil {
		return nil, size, err
	}
	if err := validate[T](h); err != nil {
		return nil, size, err
	}

	switch want := HeaderSize + h.BodySize() + TrailerSize; {
	case size < want:
		return nil, size, fmt.Errorf("%w: %d of %d bytes", ErrTruncated, size, want)
	case size > want:
		return nil, size, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, size-want)
	}

	// The blob size vouches for the count, so the list can be sized up front.
	list, err := biglist.NewWithCapacity[T](int64(h.Count), opts...)
	if err != nil {
		return nil, size, err
	}

	crc := ihash.UpdateCRC32C(0, hdr[:])
	d := newDecoder[T](windowBytes / conv.Width[T]())

	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, size, err
		}
		body := data[HeaderSize : HeaderSize+h.BodySize()]
		crc = ihash.UpdateCRC32C(crc, body)
		if err := d.appendTo(list, body); err != nil {
			return nil, size, err
		}
		if err := verify(binary.LittleEndian.Uint32(data[size-TrailerSize:]), crc); err != nil {
			return nil, size, err
		}
		return list, size, nil
	}

	if err := s.fetchBody(ctx, blob, h.BodySize(), func(chunk []byte) error {
		crc = ihash.UpdateCRC32C(crc, chunk)
		return d.appendTo(list, chunk)
	}); err != nil {
		return nil, size, err
	}

	var trailer [TrailerSize]byte
	if _, err := blob.ReadAt(ctx, trailer[:], size-TrailerSize); err != nil && !errors.Is(err, io.EOF) {
		return nil, size, err
	}
	if err := verify(binary.LittleEndian.Uint32(trailer[:]), crc); err != nil {
		return nil, size, err
	}
	return list, size, nil
}

// fetchBody reads the body of blob in windows of Parallelism chunks. The
// chunks of a window are fetched concurrently and handed to fn in order.
func (s *Store) fetchBody(ctx context.Context, blob blobstore.Blob, bodySize int64, fn func(chunk []byte) error) error {
	if bodySize == 0 {
		return nil
	}

	chunkSize := int64(s.opts.ReadChunkSize)
	chunkSize = max(8, chunkSize-chunkSize%8)
	par := int64(s.opts.Parallelism)
	windowSize := min(bodySize, chunkSize*par)

	rc := s.opts.Controller
	if err := rc.AcquireMemory(ctx, windowSize); err != nil {
		return err
	}
	defer rc.ReleaseMemory(windowSize)

	buf := make([]byte, windowSize)

	for winOff := int64(0); winOff < bodySize; winOff += windowSize {
		winLen := min(windowSize, bodySize-winOff)
		window := buf[:winLen]

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(int(par))
		for off := int64(0); off < winLen; off += chunkSize {
			chunk := window[off:min(off+chunkSize, winLen)]
			pos := HeaderSize + winOff + off
			g.Go(func() error {
				if err := rc.AcquireBackground(gctx); err != nil {
					return err
				}
				defer rc.ReleaseBackground()

				if err := rc.AcquireIO(gctx, len(chunk)); err != nil {
					return err
				}
				n, err := blob.ReadAt(gctx, chunk, pos)
				if err != nil && !(errors.Is(err, io.EOF) && n == len(chunk)) {
					return truncated("body", err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if err := fn(window); err != nil {
			return err
		}
	}
	return nil
}
