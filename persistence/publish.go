package persistence

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/biglist"
	"github.com/hupe1980/biglist/blobstore"
	"github.com/hupe1980/biglist/internal/conv"
)

const (
	// PointerName is the base name of the blob that points at the current
	// version of a published list.
	PointerName = "CURRENT"

	// Ext is the file extension of encoded lists.
	Ext = ".bgl"

	maxClaimAttempts = 8
)

// ErrNoVersion is returned by LoadCurrent when nothing was published yet.
var ErrNoVersion = errors.New("no published version")

// Version is one published version of a list.
type Version struct {
	Number uint64
	Blob   string
}

// Publish saves seq as the next version of the list name and points
// name/CURRENT at it. It returns the blob name of the new version.
//
// On a store implementing blobstore.ConditionalPutter each version number is
// claimed with a conditional write. Other stores get a unique suffix per
// version, and the pointer update decides between concurrent publishers: on
// an s3.CommitStore a lost race fails with its ErrConcurrentModification and
// the orphaned version blob is removed.
func Publish[T biglist.Element](ctx context.Context, s *Store, name string, seq biglist.Sequence[T]) (string, error) {
	start := time.Now()
	count := seq.Len()

	blob, n, err := publishVersion(ctx, s, name, seq)
	s.opts.Metrics.RecordSave(count, n, time.Since(start), err)
	if err != nil {
		s.opts.Logger.LogPublish(ctx, name, blob, err)
		return "", err
	}

	if err := s.blobs.Put(ctx, pointerPath(name), []byte(blob)); err != nil {
		_ = s.blobs.Delete(ctx, blob)
		err = fmt.Errorf("publish %s: %w", name, err)
		s.opts.Logger.LogPublish(ctx, name, blob, err)
		return "", err
	}

	s.opts.Logger.LogPublish(ctx, name, blob, nil)
	return blob, nil
}

func publishVersion[T biglist.Element](ctx context.Context, s *Store, name string, seq biglist.Sequence[T]) (string, int64, error) {
	versions, err := s.Versions(ctx, name)
	if err != nil {
		return "", 0, fmt.Errorf("publish %s: %w", name, err)
	}
	next := uint64(1)
	if len(versions) > 0 {
		next = versions[len(versions)-1].Number + 1
	}

	cp, ok := s.blobs.(blobstore.ConditionalPutter)
	if !ok {
		blob := versionPath(name, next, uuid.NewString())
		n, err := s.write(ctx, blob, func(w io.Writer) (int64, error) {
			return Encode(w, seq)
		})
		return blob, n, err
	}

	size := EncodedSize[T](seq.Len())
	rc := s.opts.Controller
	if err := rc.AcquireMemory(ctx, size); err != nil {
		return "", 0, fmt.Errorf("publish %s: %w", name, err)
	}
	defer rc.ReleaseMemory(size)

	n, err := conv.Int64ToInt(size)
	if err != nil {
		return "", 0, fmt.Errorf("publish %s: %w", name, err)
	}
	var buf bytes.Buffer
	buf.Grow(n)
	if _, err := Encode(&buf, seq); err != nil {
		return "", 0, fmt.Errorf("publish %s: %w", name, err)
	}

	for range maxClaimAttempts {
		blob := versionPath(name, next, "")
		err := cp.PutIfNotExists(ctx, blob, buf.Bytes())
		if err == nil {
			return blob, int64(buf.Len()), nil
		}
		if !errors.Is(err, blobstore.ErrExists) {
			return blob, 0, fmt.Errorf("publish %s: %w", name, err)
		}
		next++
	}
	return "", 0, fmt.Errorf("publish %s: %w: gave up after %d claims",
		name, biglist.ErrConcurrentModification, maxClaimAttempts)
}

// LoadCurrent loads the version name/CURRENT points at and returns it with
// its blob name.
func LoadCurrent[T biglist.Element](ctx context.Context, s *Store, name string, opts ...biglist.Option) (*biglist.BigList[T], string, error) {
	blob, err := Current(ctx, s, name)
	if err != nil {
		return nil, "", err
	}
	list, err := Load[T](ctx, s, blob, opts...)
	if err != nil {
		return nil, "", err
	}
	return list, blob, nil
}

// Current returns the blob name name/CURRENT points at.
func Current(ctx context.Context, s *Store, name string) (string, error) {
	data, err := blobstore.ReadAll(ctx, s.blobs, pointerPath(name))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNoVersion, name)
		}
		return "", fmt.Errorf("read pointer %s: %w", name, err)
	}
	blob := strings.TrimSpace(string(data))
	if _, ok := parseVersion(name, blob); !ok {
		return "", fmt.Errorf("%w: pointer %s names %q", ErrCorrupt, name, blob)
	}
	return blob, nil
}

// Versions returns the published versions of name in ascending order.
func (s *Store) Versions(ctx context.Context, name string) ([]Version, error) {
	names, err := s.blobs.List(ctx, name+"/")
	if err != nil {
		return nil, err
	}

	var versions []Version
	for _, blob := range names {
		if v, ok := parseVersion(name, blob); ok {
			versions = append(versions, Version{Number: v, Blob: blob})
		}
	}
	slices.SortFunc(versions, func(a, b Version) int {
		if a.Number != b.Number {
			return cmp.Compare(a.Number, b.Number)
		}
		return strings.Compare(a.Blob, b.Blob)
	})
	return versions, nil
}

// Prune deletes all but the newest keep versions of name. The version
// name/CURRENT points at is always kept. It returns the deleted blobs.
// A negative keep fails with biglist.ErrInvalidLength.
func (s *Store) Prune(ctx context.Context, name string, keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("prune %s: %w: keep %d", name, biglist.ErrInvalidLength, keep)
	}
	versions, err := s.Versions(ctx, name)
	if err != nil {
		return nil, err
	}
	current, err := Current(ctx, s, name)
	if err != nil && !errors.Is(err, ErrNoVersion) {
		return nil, err
	}

	var deleted []string
	for _, v := range versions[:max(0, len(versions)-keep)] {
		if v.Blob == current {
			continue
		}
		if err := s.blobs.Delete(ctx, v.Blob); err != nil {
			return deleted, fmt.Errorf("prune %s: %w", v.Blob, err)
		}
		deleted = append(deleted, v.Blob)
	}
	return deleted, nil
}

// IsPointer reports whether blob is the CURRENT pointer of a list. Use it to
// keep pointers out of read caches.
func IsPointer(blob string) bool {
	return path.Base(blob) == PointerName
}

func pointerPath(name string) string {
	return name + "/" + PointerName
}

// versionPath returns name/000042.bgl, or name/000042-<suffix>.bgl.
func versionPath(name string, version uint64, suffix string) string {
	if suffix == "" {
		return fmt.Sprintf("%s/%06d%s", name, version, Ext)
	}
	return fmt.Sprintf("%s/%06d-%s%s", name, version, suffix, Ext)
}

// parseVersion extracts the version number of a blob below name.
func parseVersion(name, blob string) (uint64, bool) {
	if path.Dir(blob) != path.Clean(name) {
		return 0, false
	}
	base, ok := strings.CutSuffix(path.Base(blob), Ext)
	if !ok {
		return 0, false
	}
	digits, _, _ := strings.Cut(base, "-")
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}
