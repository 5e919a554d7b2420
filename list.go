package biglist

import (
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/hupe1980/biglist/internal/container"
)

// List is the behavior shared by *BigList and *SubList. Iterators and
// sublists are built on it, so they work the same over a list or a view.
//
// The interface is sealed; only this package implements it.
type List[T Element] interface {
	Sequence[T]

	Get(index int64) (T, error)
	Set(index int64, value T) (T, error)
	Insert(index int64, value T) error
	RemoveAt(index int64) (T, error)
	InsertAll(index int64, values Sequence[T]) error
	AddElements(index int64, src []T, offset, length int) error
	GetElements(from int64, dst []T, offset, length int) error
	RemoveRange(from, to int64) error
	Iterator(start int64) (*Iterator[T], error)
	SubList(from, to int64) (*SubList[T], error)

	// resolve maps [from, to) of this list onto the root BigList, validating
	// every view on the way.
	resolve(from, to int64) (*BigList[T], int64, error)

	// removeIfIn compacts [from, to) and returns the number of elements removed.
	removeIfIn(from, to int64, pred func(T) bool) (int64, error)
}

// BigList is a list of numeric elements addressed by int64 indices. Storage
// is split into fixed-size segments, so the element count is bounded by the
// int64 range instead of the largest single allocation.
//
// A BigList is not safe for concurrent use. Structural changes made while an
// Iterator is in use, other than through that iterator, leave the iterator
// in an undefined state; a SubList detects a parent that shrank below its
// bounds and fails with ErrConcurrentModification.
type BigList[T Element] struct {
	store *container.SegmentedStore[T]
	size  int64
	// lazy is set until the first growth of a list created by New.
	lazy bool
	cfg  *options
}

var (
	_ List[int64] = (*BigList[int64])(nil)
	_ List[int64] = (*SubList[int64])(nil)
)

func newList[T Element](cfg *options) *BigList[T] {
	return &BigList[T]{
		store: container.NewSegmentedStore[T](cfg.segmentBits, cfg.allocator()),
		cfg:   cfg,
	}
}

// New creates an empty list. No segment is allocated until the first
// element is added; EnsureCapacity on such a list is a no-op.
func New[T Element](opts ...Option) *BigList[T] {
	l := newList[T](resolveOptions(opts))
	l.lazy = true
	return l
}

// NewWithCapacity creates an empty list with room for n elements.
func NewWithCapacity[T Element](n int64, opts ...Option) (*BigList[T], error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidLength, n)
	}
	l := newList[T](resolveOptions(opts))
	if err := l.growExact(n); err != nil {
		return nil, err
	}
	return l, nil
}

// Of creates a list holding the given values.
func Of[T Element](values ...T) *BigList[T] {
	l := newList[T](resolveOptions(nil))
	// Without a resource controller the store cannot refuse a slice-sized grow.
	if err := l.AddElements(0, values, 0, len(values)); err != nil {
		panic(err)
	}
	return l
}

// FromSlice creates a list holding a copy of values.
func FromSlice[T Element](values []T, opts ...Option) (*BigList[T], error) {
	l := newList[T](resolveOptions(opts))
	if err := l.AddElements(0, values, 0, len(values)); err != nil {
		return nil, err
	}
	return l, nil
}

// FromSequence creates a list holding the elements of seq in order. The
// list is sized once from seq.Len().
func FromSequence[T Element](seq Sequence[T], opts ...Option) (*BigList[T], error) {
	l := newList[T](resolveOptions(opts))
	if err := l.InsertAll(0, seq); err != nil {
		return nil, err
	}
	return l, nil
}

// FromSeq creates a list from an arbitrary stream, such as the keys of a map.
// The result equals a list built by calling Add for each yielded value.
func FromSeq[T Element](seq iter.Seq[T], opts ...Option) (*BigList[T], error) {
	l := New[T](opts...)
	for v := range seq {
		if err := l.Add(v); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// FromIterator drains the remaining elements of it into a new list.
func FromIterator[T Element](it *Iterator[T], opts ...Option) (*BigList[T], error) {
	l := New[T](opts...)
	for it.HasNext() {
		v, err := it.Next()
		if err != nil {
			return nil, err
		}
		if err := l.Add(v); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Len returns the number of elements.
func (l *BigList[T]) Len() int64 { return l.size }

// IsEmpty reports whether the list holds no element.
func (l *BigList[T]) IsEmpty() bool { return l.size == 0 }

// Capacity returns the number of slots currently allocated.
func (l *BigList[T]) Capacity() int64 { return l.store.Capacity() }

// Segments returns the number of materialized segments.
func (l *BigList[T]) Segments() int { return l.store.Segments() }

// Get returns the element at index.
func (l *BigList[T]) Get(index int64) (T, error) {
	if err := checkIndex("get", index, l.size); err != nil {
		var zero T
		return zero, err
	}
	return l.store.At(index), nil
}

// Set replaces the element at index and returns the previous value.
func (l *BigList[T]) Set(index int64, value T) (T, error) {
	if err := checkIndex("set", index, l.size); err != nil {
		var zero T
		return zero, err
	}
	old := l.store.At(index)
	l.store.Put(index, value)
	return old, nil
}

// Add appends value.
func (l *BigList[T]) Add(value T) error {
	if err := l.growBy(1); err != nil {
		return err
	}
	l.store.Put(l.size, value)
	l.size++
	return nil
}

// Insert inserts value before index, shifting later elements right.
func (l *BigList[T]) Insert(index int64, value T) error {
	if err := checkPosition("insert", index, l.size); err != nil {
		return err
	}
	if err := l.growBy(1); err != nil {
		return err
	}
	if index != l.size {
		if err := l.store.CopyRange(index, index+1, l.size-index); err != nil {
			return translateError(err)
		}
	}
	l.store.Put(index, value)
	l.size++
	return nil
}

// RemoveAt removes the element at index and returns it.
func (l *BigList[T]) RemoveAt(index int64) (T, error) {
	if err := checkIndex("remove", index, l.size); err != nil {
		var zero T
		return zero, err
	}
	old := l.store.At(index)
	l.size--
	if index != l.size {
		if err := l.store.CopyRange(index+1, index, l.size-index); err != nil {
			return old, translateError(err)
		}
	}
	var zero T
	l.store.Put(l.size, zero)
	return old, nil
}

// RemoveRange removes the elements in [from, to).
func (l *BigList[T]) RemoveRange(from, to int64) error {
	if err := checkRange("remove range", from, to, l.size); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if err := l.store.CopyRange(to, from, l.size-to); err != nil {
		return translateError(err)
	}
	n := to - from
	if err := l.store.Clear(l.size-n, l.size); err != nil {
		return translateError(err)
	}
	l.size -= n
	return nil
}

// IndexOf returns the index of the first element equal to value, or -1.
func (l *BigList[T]) IndexOf(value T) int64 {
	return l.indexIn(0, l.size, value)
}

// LastIndexOf returns the index of the last element equal to value, or -1.
func (l *BigList[T]) LastIndexOf(value T) int64 {
	return l.lastIndexIn(0, l.size, value)
}

// Contains reports whether value is present.
func (l *BigList[T]) Contains(value T) bool {
	return l.IndexOf(value) >= 0
}

func (l *BigList[T]) indexIn(from, to int64, value T) int64 {
	for base, seg := range l.store.Chunks(from, to) {
		for i, v := range seg {
			if equalElements(v, value) {
				return base + int64(i)
			}
		}
	}
	return -1
}

func (l *BigList[T]) lastIndexIn(from, to int64, value T) int64 {
	for base, seg := range l.store.ChunksBackward(from, to) {
		for i := len(seg) - 1; i >= 0; i-- {
			if equalElements(seg[i], value) {
				return base + int64(i)
			}
		}
	}
	return -1
}

// Resize sets the number of elements to n. Growing appends zero values;
// shrinking drops the tail.
func (l *BigList[T]) Resize(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: size %d", ErrInvalidLength, n)
	}
	if n > l.size {
		// Slots past size are always zero, so growing needs no fill.
		if err := l.grow(n); err != nil {
			return err
		}
	} else if err := l.store.Clear(n, l.size); err != nil {
		return translateError(err)
	}
	l.size = n
	return nil
}

// Clear removes all elements. Capacity is kept.
func (l *BigList[T]) Clear() {
	_ = l.store.Clear(0, l.size)
	l.size = 0
}

// EnsureCapacity makes room for at least n elements without further
// allocation. It is a no-op on a list created by New that has not grown yet.
func (l *BigList[T]) EnsureCapacity(n int64) error {
	if n <= l.store.Capacity() || l.lazy {
		return nil
	}
	return l.growExact(n)
}

// Trim releases the capacity beyond the segment holding the last element.
func (l *BigList[T]) Trim() {
	l.TrimTo(0)
}

// TrimTo releases capacity beyond max(n, Len()), in whole segments.
func (l *BigList[T]) TrimTo(n int64) {
	before := l.store.Capacity()
	if n >= before {
		return
	}
	l.store.Trim(max(n, l.size))
	if after := l.store.Capacity(); after != before {
		l.lazy = false
		l.cfg.metricsCollector.RecordTrim(before, after)
		l.cfg.logger.LogTrim(before, after, l.store.Segments())
	}
}

// Free releases every segment and empties the list.
func (l *BigList[T]) Free() {
	before := l.store.Capacity()
	l.store.Release()
	l.size = 0
	if before > 0 {
		l.cfg.metricsCollector.RecordTrim(before, 0)
		l.cfg.logger.LogTrim(before, 0, 0)
	}
}

// Clone returns a deep copy that shares no segment with l.
func (l *BigList[T]) Clone() (*BigList[T], error) {
	store, err := l.store.Clone()
	if err != nil {
		return nil, translateError(err)
	}
	return &BigList[T]{
		store: store,
		size:  l.size,
		lazy:  l.lazy,
		cfg:   l.cfg,
	}, nil
}

// Values returns an iterator over the elements in order.
func (l *BigList[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, seg := range l.store.Chunks(0, l.size) {
			for _, v := range seg {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// All returns an iterator over index-value pairs in order.
func (l *BigList[T]) All() iter.Seq2[int64, T] {
	return l.rangeAll(0, l.size)
}

// Backward returns an iterator over index-value pairs from last to first.
func (l *BigList[T]) Backward() iter.Seq2[int64, T] {
	return l.rangeBackward(0, l.size)
}

func (l *BigList[T]) rangeAll(from, to int64) iter.Seq2[int64, T] {
	return func(yield func(int64, T) bool) {
		for base, seg := range l.store.Chunks(from, to) {
			for i, v := range seg {
				if !yield(base+int64(i), v) {
					return
				}
			}
		}
	}
}

func (l *BigList[T]) rangeBackward(from, to int64) iter.Seq2[int64, T] {
	return func(yield func(int64, T) bool) {
		for base, seg := range l.store.ChunksBackward(from, to) {
			for i := len(seg) - 1; i >= 0; i-- {
				if !yield(base+int64(i), seg[i]) {
					return
				}
			}
		}
	}
}

// Push appends value.
func (l *BigList[T]) Push(value T) error {
	return l.Add(value)
}

// Pop removes and returns the last element.
func (l *BigList[T]) Pop() (T, error) {
	if l.size == 0 {
		var zero T
		return zero, fmt.Errorf("%w: pop from empty list", ErrNoSuchElement)
	}
	return l.RemoveAt(l.size - 1)
}

// Top returns the last element.
func (l *BigList[T]) Top() (T, error) {
	if l.size == 0 {
		var zero T
		return zero, fmt.Errorf("%w: top of empty list", ErrNoSuchElement)
	}
	return l.store.At(l.size - 1), nil
}

// Iterator returns a bidirectional iterator positioned before start.
func (l *BigList[T]) Iterator(start int64) (*Iterator[T], error) {
	return newIterator[T](l, start)
}

// SubList returns a view over [from, to).
func (l *BigList[T]) SubList(from, to int64) (*SubList[T], error) {
	return newSubList[T](l, from, to)
}

func (l *BigList[T]) resolve(from, to int64) (*BigList[T], int64, error) {
	if err := checkRange("sublist", from, to, l.size); err != nil {
		return nil, 0, err
	}
	return l, from, nil
}

// growBy makes room for n more elements.
func (l *BigList[T]) growBy(n int64) error {
	if n > math.MaxInt64-l.size {
		return fmt.Errorf("%w: %d + %d elements overflow int64", ErrCapacityExceeded, l.size, n)
	}
	return l.grow(l.size + n)
}

// grow applies the growth policy: a lazy list starts at
// DefaultInitialCapacity, any other list grows by half its capacity, and
// never by less than needed.
func (l *BigList[T]) grow(needed int64) error {
	capacity := l.store.Capacity()
	if needed <= capacity {
		return nil
	}
	limit := l.store.MaxCapacity()
	if needed > limit {
		err := fmt.Errorf("%w: %d exceeds max capacity %d", ErrCapacityExceeded, needed, limit)
		l.cfg.logger.LogGrow(capacity, needed, l.store.Segments(), err)
		return err
	}

	var target int64
	if l.lazy {
		target = max(needed, DefaultInitialCapacity)
	} else if capacity > limit-capacity/2 {
		target = limit
	} else {
		target = max(needed, capacity+capacity/2)
	}
	return l.growExact(min(target, limit))
}

func (l *BigList[T]) growExact(n int64) error {
	before := l.store.Capacity()
	if n <= before {
		return nil
	}
	start := time.Now()
	err := translateError(l.store.Grow(n))
	l.cfg.metricsCollector.RecordGrow(before, n, time.Since(start), err)
	l.cfg.logger.LogGrow(before, n, l.store.Segments(), err)
	if err != nil {
		return err
	}
	l.lazy = false
	return nil
}
