package biglist

import (
	"fmt"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// AddAll appends the elements of values.
func (l *BigList[T]) AddAll(values Sequence[T]) error {
	return l.InsertAll(l.size, values)
}

// InsertAll inserts the elements of values before index. Capacity grows
// once, the tail shifts once, and the new elements are written in bulk.
//
// values may be l itself or a view of l.
func (l *BigList[T]) InsertAll(index int64, values Sequence[T]) error {
	if err := checkPosition("insert all", index, l.size); err != nil {
		return err
	}
	if l.aliases(values) {
		values = Slice[T](slices.Collect(values.Values()))
	}
	n := values.Len()
	if n < 0 {
		return fmt.Errorf("%w: sequence length %d", ErrInvalidLength, n)
	}
	if n == 0 {
		return nil
	}
	if err := l.growBy(n); err != nil {
		return err
	}
	if index != l.size {
		if err := l.store.CopyRange(index, index+n, l.size-index); err != nil {
			return translateError(err)
		}
	}

	written, err := l.writeSequence(index, n, values)
	if err != nil {
		return err
	}
	if written < n {
		// Close the gap left by a sequence shorter than it claimed.
		if err := l.store.CopyRange(index+n, index+written, l.size-index); err != nil {
			return translateError(err)
		}
		l.size += written
		_ = l.store.Clear(l.size, l.size+n-written)
		return fmt.Errorf("%w: sequence yielded %d of %d elements", ErrConcurrentModification, written, n)
	}
	l.size += n
	return nil
}

// writeSequence copies up to n elements of values to [index, index+n).
func (l *BigList[T]) writeSequence(index, n int64, values Sequence[T]) (int64, error) {
	switch src := values.(type) {
	case Slice[T]:
		return n, translateError(l.store.CopyIn(index, src[:n]))
	case *BigList[T]:
		for base, seg := range src.store.Chunks(0, n) {
			if err := l.store.CopyIn(index+base, seg); err != nil {
				return base, translateError(err)
			}
		}
		return n, nil
	}

	var written int64
	for v := range values.Values() {
		if written == n {
			break
		}
		l.store.Put(index+written, v)
		written++
	}
	return written, nil
}

// aliases reports whether values reads from l's own storage.
func (l *BigList[T]) aliases(values Sequence[T]) bool {
	switch src := values.(type) {
	case *BigList[T]:
		return src == l
	case *SubList[T]:
		root, _, err := src.resolve(0, src.Len())
		return err == nil && root == l
	}
	return false
}

// AddElements inserts src[offset:offset+length] before index.
func (l *BigList[T]) AddElements(index int64, src []T, offset, length int) error {
	if err := checkBuffer("add elements", offset, length, len(src)); err != nil {
		return err
	}
	if err := checkPosition("add elements", index, l.size); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	n := int64(length)
	if err := l.growBy(n); err != nil {
		return err
	}
	if index != l.size {
		if err := l.store.CopyRange(index, index+n, l.size-index); err != nil {
			return translateError(err)
		}
	}
	if err := l.store.CopyIn(index, src[offset:offset+length]); err != nil {
		return translateError(err)
	}
	l.size += n
	return nil
}

// GetElements copies length elements starting at from into dst[offset:].
func (l *BigList[T]) GetElements(from int64, dst []T, offset, length int) error {
	if err := checkBuffer("get elements", offset, length, len(dst)); err != nil {
		return err
	}
	if err := checkRange("get elements", from, from+int64(length), l.size); err != nil {
		return err
	}
	return translateError(l.store.CopyOut(from, dst[offset:offset+length]))
}

// RemoveIf removes every element for which pred returns true and reports
// whether anything was removed. pred is called exactly once per element, in
// order.
func (l *BigList[T]) RemoveIf(pred func(T) bool) bool {
	// Compaction only moves elements within [0, size), which the store
	// already holds, so CopyRange and Clear cannot fail here.
	removed, err := l.removeIfIn(0, l.size, pred)
	if err != nil {
		panic(err)
	}
	return removed > 0
}

// RemoveAll removes every element equal to one of values.
func (l *BigList[T]) RemoveAll(values ...T) bool {
	return l.RemoveIf(memberOf(values, true))
}

// RetainAll removes every element not equal to one of values.
func (l *BigList[T]) RetainAll(values ...T) bool {
	return l.RemoveIf(memberOf(values, false))
}

// memberOf returns a predicate reporting whether v is (or, with want false,
// is not) in values.
func memberOf[T Element](values []T, want bool) func(T) bool {
	set := make(map[uint64]struct{}, len(values))
	for _, v := range values {
		set[elementKey(v)] = struct{}{}
	}
	return func(v T) bool {
		_, ok := set[elementKey(v)]
		return ok == want
	}
}

// removeIfIn compacts [from, to) in a single pass. Elements before the
// first match are never moved; each kept run after it is moved with one
// block copy.
func (l *BigList[T]) removeIfIn(from, to int64, pred func(T) bool) (int64, error) {
	start := time.Now()

	r := from
	for r < to && !pred(l.store.At(r)) {
		r++
	}
	if r == to {
		return 0, nil
	}

	w := r
	r++
	for r < to {
		if pred(l.store.At(r)) {
			r++
			continue
		}
		run := r
		r++
		for r < to && !pred(l.store.At(r)) {
			r++
		}
		if err := l.store.CopyRange(run, w, r-run); err != nil {
			return 0, translateError(err)
		}
		w += r - run
		// r, if still in range, was matched by the inner loop.
		r++
	}

	removed := to - w
	if err := l.closeGap(w, to); err != nil {
		return 0, err
	}

	l.cfg.metricsCollector.RecordCompaction(to-from, removed, time.Since(start))
	l.cfg.logger.LogCompaction(to-from, removed)
	return removed, nil
}

// closeGap moves [to, size) down to w and clears the vacated tail.
func (l *BigList[T]) closeGap(w, to int64) error {
	if err := l.store.CopyRange(to, w, l.size-to); err != nil {
		return translateError(err)
	}
	newSize := l.size - (to - w)
	if err := l.store.Clear(newSize, l.size); err != nil {
		return translateError(err)
	}
	l.size = newSize
	return nil
}

// RemoveIndices removes the elements at the positions set in indices and
// reports whether anything was removed. Every index must be below Len().
func (l *BigList[T]) RemoveIndices(indices *roaring64.Bitmap) (bool, error) {
	if indices == nil || indices.IsEmpty() {
		return false, nil
	}
	if last := indices.Maximum(); last >= uint64(l.size) {
		return false, &IndexError{Op: "remove indices", Index: int64(min(last, 1<<63-1)), Low: 0, High: l.size}
	}

	start := time.Now()
	it := indices.Iterator()
	first := int64(it.Next())
	w, r := first, first+1
	for it.HasNext() {
		idx := int64(it.Next())
		if idx > r {
			if err := l.store.CopyRange(r, w, idx-r); err != nil {
				return false, translateError(err)
			}
			w += idx - r
		}
		r = idx + 1
	}
	scanned := l.size
	if err := l.closeGap(w, r); err != nil {
		return false, err
	}

	removed := r - w
	l.cfg.metricsCollector.RecordCompaction(scanned, removed, time.Since(start))
	l.cfg.logger.LogCompaction(scanned, removed)
	return true, nil
}
