package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/biglist/internal/cache"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheBlockSize is the block size used by NewCachingStore when none
// is given.
const DefaultCacheBlockSize = 64 * 1024

// maxFillConcurrency bounds the parallel backend reads of one cache fill.
const maxFillConcurrency = 16

// CachingStore wraps a BlobStore and adds block-level read caching.
//
// It pays off for remote stores where repeated loads of the same list would
// otherwise fetch the same byte ranges again. Writes and deletes through the
// store invalidate the affected blob.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
	bypass    func(name string) bool
}

// CachingOptions configures a CachingStore.
type CachingOptions struct {
	// Bypass selects blobs that are read straight from the wrapped store,
	// such as mutable pointers written by other processes.
	Bypass func(name string) bool
}

// NewCachingStore creates a new CachingStore.
// blockSize defaults to DefaultCacheBlockSize if <= 0.
func NewCachingStore(inner BlobStore, c cache.BlockCache, blockSize int64, optFns ...func(o *CachingOptions)) *CachingStore {
	if blockSize <= 0 {
		blockSize = DefaultCacheBlockSize
	}
	var opts CachingOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &CachingStore{
		inner:     inner,
		cache:     c,
		blockSize: blockSize,
		bypass:    opts.Bypass,
	}
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(key cache.Key) bool {
		return key.Path == name
	})
}

// Open opens a blob whose reads are served through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.bypass != nil && s.bypass(name) {
		return b, nil
	}
	return &CachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

// Create creates a writable blob. Cached blocks of name are dropped when the
// writer is closed.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	w, err := s.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &invalidatingWriter{WritableBlob: w, done: func() { s.invalidate(name) }}, nil
}

// Put writes a blob and drops its cached blocks.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	defer s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes a blob and drops its cached blocks.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	defer s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List delegates to the wrapped store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

type invalidatingWriter struct {
	WritableBlob
	done func()
}

func (w *invalidatingWriter) Close() error {
	defer w.done()
	return w.WritableBlob.Close()
}

func (w *invalidatingWriter) Abort() error {
	return Abort(w.WritableBlob)
}

// CachingBlob wraps a Blob and uses the block cache for reads.
type CachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	blockSize int64
}

// Close closes the wrapped blob. Cached blocks stay valid.
func (b *CachingBlob) Close() error {
	return b.inner.Close()
}

// Size returns the size of the wrapped blob.
func (b *CachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *CachingBlob) key(blk int64) cache.Key {
	return cache.Key{Path: b.name, Block: uint64(blk)}
}

// ReadAt reads through the cache, fetching missing blocks in coalesced runs.
func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errInvalidRange
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	size := b.Size()
	if off >= size {
		return 0, io.EOF
	}
	want := p
	if off+int64(len(p)) > size {
		want = p[:size-off]
	}

	startBlock := off / b.blockSize
	endBlock := (off + int64(len(want)) - 1) / b.blockSize

	if err := b.fillCache(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	total := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.blockSize
		data, err := b.fetchBlock(ctx, blk)
		if err != nil {
			return total, err
		}

		from := max(blkStart, off)
		to := min(blkStart+int64(len(data)), off+int64(len(want)))
		if to <= from {
			break
		}
		total += copy(want[from-off:to-off], data[from-blkStart:])
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

type blockRun struct {
	start, count int64
}

// fillCache loads the missing blocks in [startBlock, endBlock], fetching each
// contiguous run of misses with one backend read.
func (b *CachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	var runs []blockRun
	for blk := startBlock; blk <= endBlock; blk++ {
		if _, ok := b.cache.Get(ctx, b.key(blk)); ok {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].start+runs[n-1].count == blk {
			runs[n-1].count++
			continue
		}
		runs = append(runs, blockRun{start: blk, count: 1})
	}
	if len(runs) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFillConcurrency)

	size := b.Size()
	for _, run := range runs {
		g.Go(func() error {
			byteStart := run.start * b.blockSize
			byteLen := min(run.count*b.blockSize, size-byteStart)
			if byteLen <= 0 {
				return nil
			}

			buf := make([]byte, byteLen)
			n, err := b.inner.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]

			for i := range run.count {
				lo := i * b.blockSize
				if lo >= int64(len(buf)) {
					break
				}
				hi := min(lo+b.blockSize, int64(len(buf)))
				// Copy so that one cached block does not pin the whole run.
				b.cache.Set(gctx, b.key(run.start+i), append([]byte(nil), buf[lo:hi]...))
			}
			return nil
		})
	}
	return g.Wait()
}

// fetchBlock returns a block from the cache, or reads it directly when the
// cache declined to keep it.
func (b *CachingBlob) fetchBlock(ctx context.Context, blk int64) ([]byte, error) {
	if data, ok := b.cache.Get(ctx, b.key(blk)); ok {
		return data, nil
	}

	offset := blk * b.blockSize
	buf := make([]byte, min(b.blockSize, b.Size()-offset))
	n, err := b.inner.ReadAt(ctx, buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

// ReadRange returns a reader that pulls the range through the cache.
func (b *CachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || length < 0 {
		return nil, errInvalidRange
	}
	limit := min(off+length, b.Size())
	return io.NopCloser(&contextSectionReader{blob: b, ctx: ctx, off: off, limit: limit}), nil
}

// contextSectionReader adapts CachingBlob.ReadAt to io.Reader.
type contextSectionReader struct {
	blob  *CachingBlob
	ctx   context.Context
	off   int64
	limit int64
}

func (r *contextSectionReader) Read(p []byte) (n int, err error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err = r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
