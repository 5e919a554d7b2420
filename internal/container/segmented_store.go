// Package container implements the two-level segmented storage behind biglist.
package container

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"unsafe"
)

const (
	// DefaultSegmentBits determines the default size of each segment.
	// 27 bits = 134217728 items per segment.
	DefaultSegmentBits = 27

	// MinSegmentBits and MaxSegmentBits bound configurable segment sizes.
	MinSegmentBits = 1
	MaxSegmentBits = 30
)

var (
	// ErrIndexOutOfRange is returned when an index falls outside the store's capacity.
	ErrIndexOutOfRange = errors.New("container: index out of range")
	// ErrCapacityExceeded is returned when a requested capacity cannot be addressed or allocated.
	ErrCapacityExceeded = errors.New("container: capacity exceeded")
)

// Allocator accounts for the memory materialized by a store.
// *resource.Controller satisfies it; a nil Allocator disables accounting.
type Allocator interface {
	TryAcquireMemory(bytes int64) bool
	ReleaseMemory(bytes int64)
}

// SegmentedStore is a growable array-of-arrays addressed by int64 indices.
// Every segment has SegmentLength() slots except possibly the last one.
// It is not safe for concurrent use.
type SegmentedStore[T any] struct {
	segments [][]T
	capacity int64
	bits     uint
	mask     int64
	alloc    Allocator
}

// NewSegmentedStore creates an empty store with the given segment bits.
// No segment is allocated until Grow is called.
func NewSegmentedStore[T any](bits uint, alloc Allocator) *SegmentedStore[T] {
	if bits < MinSegmentBits || bits > MaxSegmentBits {
		panic(fmt.Sprintf("container: segment bits %d out of range [%d, %d]", bits, MinSegmentBits, MaxSegmentBits))
	}
	return &SegmentedStore[T]{
		bits:  bits,
		mask:  int64(1)<<bits - 1,
		alloc: alloc,
	}
}

// SegmentBits returns log2 of the segment length.
func (s *SegmentedStore[T]) SegmentBits() uint { return s.bits }

// SegmentLength returns the number of slots in a full segment.
func (s *SegmentedStore[T]) SegmentLength() int64 { return s.mask + 1 }

// Capacity returns the number of addressable slots.
func (s *SegmentedStore[T]) Capacity() int64 { return s.capacity }

// Segments returns the number of materialized segments.
func (s *SegmentedStore[T]) Segments() int { return len(s.segments) }

// MaxCapacity returns the largest capacity the store can address.
func (s *SegmentedStore[T]) MaxCapacity() int64 {
	var header []T
	maxSegments := int64(math.MaxInt) / int64(unsafe.Sizeof(header))
	if maxSegments > math.MaxInt64>>s.bits {
		return math.MaxInt64
	}
	return maxSegments << s.bits
}

// segmentsFor returns how many segments cover [0, n).
func (s *SegmentedStore[T]) segmentsFor(n int64) int {
	if n <= 0 {
		return 0
	}
	return int((n-1)>>s.bits) + 1
}

func (s *SegmentedStore[T]) elemSize() int64 {
	var zero T
	return int64(unsafe.Sizeof(zero))
}

func (s *SegmentedStore[T]) checkRange(index, length int64) error {
	if index < 0 || length < 0 || index > s.capacity-length {
		return fmt.Errorf("%w: range [%d, %d+%d) with capacity %d", ErrIndexOutOfRange, index, index, length, s.capacity)
	}
	return nil
}

// Get returns the item at the given index.
func (s *SegmentedStore[T]) Get(index int64) (T, error) {
	if index < 0 || index >= s.capacity {
		var zero T
		return zero, fmt.Errorf("%w: index %d with capacity %d", ErrIndexOutOfRange, index, s.capacity)
	}
	return s.segments[index>>s.bits][index&s.mask], nil
}

// Set stores value at the given index.
func (s *SegmentedStore[T]) Set(index int64, value T) error {
	if index < 0 || index >= s.capacity {
		return fmt.Errorf("%w: index %d with capacity %d", ErrIndexOutOfRange, index, s.capacity)
	}
	s.segments[index>>s.bits][index&s.mask] = value
	return nil
}

// At returns the item at index without bounds validation.
func (s *SegmentedStore[T]) At(index int64) T {
	return s.segments[index>>s.bits][index&s.mask]
}

// Put stores value at index without bounds validation.
func (s *SegmentedStore[T]) Put(index int64, value T) {
	s.segments[index>>s.bits][index&s.mask] = value
}

// Grow raises the capacity to exactly n when n exceeds the current capacity.
// Only the segments covering [0, n) are materialized; a short last segment
// is widened in place of allocating a full one.
func (s *SegmentedStore[T]) Grow(n int64) error {
	if n <= s.capacity {
		return nil
	}
	if n > s.MaxCapacity() {
		return fmt.Errorf("%w: %d exceeds max capacity %d", ErrCapacityExceeded, n, s.MaxCapacity())
	}

	delta := n - s.capacity
	if delta > math.MaxInt64/s.elemSize() {
		return fmt.Errorf("%w: %d slots overflow byte accounting", ErrCapacityExceeded, delta)
	}
	if s.alloc != nil && !s.alloc.TryAcquireMemory(delta*s.elemSize()) {
		return fmt.Errorf("%w: memory limit reached growing to %d slots", ErrCapacityExceeded, n)
	}

	segLen := s.SegmentLength()
	newCount := s.segmentsFor(n)
	lastLen := n - int64(newCount-1)<<s.bits

	segments := s.segments
	oldCount := len(segments)
	if newCount > cap(segments) {
		grown := make([][]T, newCount, max(newCount, 2*oldCount))
		copy(grown, segments)
		segments = grown
	} else {
		segments = segments[:newCount]
	}

	// Widen the previous last segment if it was short.
	if oldCount > 0 {
		k := oldCount - 1
		want := segLen
		if k == newCount-1 {
			want = lastLen
		}
		if int64(len(segments[k])) < want {
			widened := make([]T, want)
			copy(widened, segments[k])
			segments[k] = widened
		}
	}

	for k := oldCount; k < newCount; k++ {
		length := segLen
		if k == newCount-1 {
			length = lastLen
		}
		segments[k] = make([]T, length)
	}

	s.segments = segments
	s.capacity = n
	return nil
}

// Trim releases the segments lying entirely beyond the one that holds
// index n-1. Partial segments are kept whole.
func (s *SegmentedStore[T]) Trim(n int64) {
	if n < 0 {
		n = 0
	}
	keep := s.segmentsFor(n)
	if keep >= len(s.segments) {
		return
	}

	var released int64
	for k := keep; k < len(s.segments); k++ {
		released += int64(len(s.segments[k]))
		s.segments[k] = nil
	}
	if keep == 0 {
		s.segments = nil
	} else {
		s.segments = s.segments[:keep]
	}
	s.capacity -= released

	if s.alloc != nil {
		s.alloc.ReleaseMemory(released * s.elemSize())
	}
}

// Release drops every segment.
func (s *SegmentedStore[T]) Release() {
	s.Trim(0)
}

// CopyRange moves length items from src to dst. The ranges may overlap; the
// copy proceeds in the direction that never overwrites an unread source slot.
func (s *SegmentedStore[T]) CopyRange(src, dst, length int64) error {
	if err := s.checkRange(src, length); err != nil {
		return err
	}
	if err := s.checkRange(dst, length); err != nil {
		return err
	}
	if length == 0 || src == dst {
		return nil
	}

	if dst < src {
		for length > 0 {
			ss, so := src>>s.bits, src&s.mask
			ds, do := dst>>s.bits, dst&s.mask
			n := min(length, int64(len(s.segments[ss]))-so, int64(len(s.segments[ds]))-do)
			copy(s.segments[ds][do:do+n], s.segments[ss][so:so+n])
			src += n
			dst += n
			length -= n
		}
		return nil
	}

	srcEnd, dstEnd := src+length, dst+length
	for length > 0 {
		ss, so := (srcEnd-1)>>s.bits, (srcEnd-1)&s.mask
		ds, do := (dstEnd-1)>>s.bits, (dstEnd-1)&s.mask
		n := min(length, so+1, do+1)
		copy(s.segments[ds][do+1-n:do+1], s.segments[ss][so+1-n:so+1])
		srcEnd -= n
		dstEnd -= n
		length -= n
	}
	return nil
}

// Clear resets [from, to) to the zero value.
func (s *SegmentedStore[T]) Clear(from, to int64) error {
	if err := s.checkRange(from, to-from); err != nil {
		return err
	}
	for _, seg := range s.Chunks(from, to) {
		clear(seg)
	}
	return nil
}

// CopyIn writes values starting at dst.
func (s *SegmentedStore[T]) CopyIn(dst int64, values []T) error {
	if err := s.checkRange(dst, int64(len(values))); err != nil {
		return err
	}
	for _, seg := range s.Chunks(dst, dst+int64(len(values))) {
		values = values[copy(seg, values):]
	}
	return nil
}

// CopyOut reads len(dst) items starting at src.
func (s *SegmentedStore[T]) CopyOut(src int64, dst []T) error {
	if err := s.checkRange(src, int64(len(dst))); err != nil {
		return err
	}
	for _, seg := range s.Chunks(src, src+int64(len(dst))) {
		dst = dst[copy(dst, seg):]
	}
	return nil
}

// Chunks yields the slots of [from, to) as segment sub-slices in ascending
// order, paired with the index of their first slot. The range is assumed
// valid.
func (s *SegmentedStore[T]) Chunks(from, to int64) iter.Seq2[int64, []T] {
	return func(yield func(int64, []T) bool) {
		for from < to {
			seg, off := from>>s.bits, from&s.mask
			n := min(to-from, int64(len(s.segments[seg]))-off)
			if !yield(from, s.segments[seg][off:off+n]) {
				return
			}
			from += n
		}
	}
}

// ChunksBackward is like Chunks but walks from the end of the range.
func (s *SegmentedStore[T]) ChunksBackward(from, to int64) iter.Seq2[int64, []T] {
	return func(yield func(int64, []T) bool) {
		for to > from {
			seg, off := (to-1)>>s.bits, (to-1)&s.mask
			n := min(to-from, off+1)
			if !yield(to-n, s.segments[seg][off+1-n:off+1]) {
				return
			}
			to -= n
		}
	}
}

// Clone returns a deep copy that shares no segment with s.
func (s *SegmentedStore[T]) Clone() (*SegmentedStore[T], error) {
	c := &SegmentedStore[T]{
		bits:  s.bits,
		mask:  s.mask,
		alloc: s.alloc,
	}
	if s.capacity == 0 {
		return c, nil
	}
	if s.alloc != nil && !s.alloc.TryAcquireMemory(s.capacity*s.elemSize()) {
		return nil, fmt.Errorf("%w: memory limit reached cloning %d slots", ErrCapacityExceeded, s.capacity)
	}
	c.segments = make([][]T, len(s.segments))
	for k, seg := range s.segments {
		c.segments[k] = make([]T, len(seg))
		copy(c.segments[k], seg)
	}
	c.capacity = s.capacity
	return c, nil
}
