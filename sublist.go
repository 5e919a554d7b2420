package biglist

import (
	"fmt"
	"iter"
	"math"
	"strings"
)

// SubList is a window over [from, to) of a parent list or view. Indices are
// relative to the window. Structural changes made through the view resize
// it; a parent that shrank below the window makes every operation fail with
// ErrConcurrentModification.
type SubList[T Element] struct {
	parent List[T]
	from   int64
	to     int64
}

func newSubList[T Element](parent List[T], from, to int64) (*SubList[T], error) {
	if err := checkRange("sublist", from, to, parent.Len()); err != nil {
		return nil, err
	}
	return &SubList[T]{parent: parent, from: from, to: to}, nil
}

func (s *SubList[T]) check() error {
	if n := s.parent.Len(); s.from > s.to || s.to > n {
		return fmt.Errorf("%w: view [%d, %d) of parent with length %d", ErrConcurrentModification, s.from, s.to, n)
	}
	return nil
}

// Check reports whether the view, and every view it was taken from, still
// fits its parent. A stale view fails with ErrConcurrentModification.
func (s *SubList[T]) Check() error {
	_, _, err := s.resolve(0, s.Len())
	return err
}

// Len returns the number of elements in the view.
func (s *SubList[T]) Len() int64 { return s.to - s.from }

// IsEmpty reports whether the view holds no element.
func (s *SubList[T]) IsEmpty() bool { return s.to == s.from }

// Get returns the element at index.
func (s *SubList[T]) Get(index int64) (T, error) {
	if err := s.check(); err != nil {
		var zero T
		return zero, err
	}
	if err := checkIndex("get", index, s.Len()); err != nil {
		var zero T
		return zero, err
	}
	return s.parent.Get(s.from + index)
}

// Set replaces the element at index and returns the previous value.
func (s *SubList[T]) Set(index int64, value T) (T, error) {
	if err := s.check(); err != nil {
		var zero T
		return zero, err
	}
	if err := checkIndex("set", index, s.Len()); err != nil {
		var zero T
		return zero, err
	}
	return s.parent.Set(s.from+index, value)
}

// Add appends value to the view, inserting it into the parent at the
// view's end.
func (s *SubList[T]) Add(value T) error {
	return s.Insert(s.Len(), value)
}

// Insert inserts value before index.
func (s *SubList[T]) Insert(index int64, value T) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := checkPosition("insert", index, s.Len()); err != nil {
		return err
	}
	if err := s.parent.Insert(s.from+index, value); err != nil {
		return err
	}
	s.to++
	return nil
}

// RemoveAt removes the element at index and returns it.
func (s *SubList[T]) RemoveAt(index int64) (T, error) {
	if err := s.check(); err != nil {
		var zero T
		return zero, err
	}
	if err := checkIndex("remove", index, s.Len()); err != nil {
		var zero T
		return zero, err
	}
	v, err := s.parent.RemoveAt(s.from + index)
	if err != nil {
		return v, err
	}
	s.to--
	return v, nil
}

// AddAll appends the elements of values to the view.
func (s *SubList[T]) AddAll(values Sequence[T]) error {
	return s.InsertAll(s.Len(), values)
}

// InsertAll inserts the elements of values before index.
func (s *SubList[T]) InsertAll(index int64, values Sequence[T]) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := checkPosition("insert all", index, s.Len()); err != nil {
		return err
	}
	before := s.parent.Len()
	err := s.parent.InsertAll(s.from+index, values)
	// A short sequence still inserts what it yielded.
	s.to += s.parent.Len() - before
	return err
}

// AddElements inserts src[offset:offset+length] before index.
func (s *SubList[T]) AddElements(index int64, src []T, offset, length int) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := checkPosition("add elements", index, s.Len()); err != nil {
		return err
	}
	if err := s.parent.AddElements(s.from+index, src, offset, length); err != nil {
		return err
	}
	s.to += int64(length)
	return nil
}

// GetElements copies length elements starting at from into dst[offset:].
func (s *SubList[T]) GetElements(from int64, dst []T, offset, length int) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := checkRange("get elements", from, from+int64(length), s.Len()); err != nil {
		return err
	}
	return s.parent.GetElements(s.from+from, dst, offset, length)
}

// RemoveRange removes the elements in [from, to) of the view.
func (s *SubList[T]) RemoveRange(from, to int64) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := checkRange("remove range", from, to, s.Len()); err != nil {
		return err
	}
	if err := s.parent.RemoveRange(s.from+from, s.from+to); err != nil {
		return err
	}
	s.to -= to - from
	return nil
}

// Clear removes every element of the view from the parent.
func (s *SubList[T]) Clear() error {
	return s.RemoveRange(0, s.Len())
}

// Resize sets the view's length to n, inserting zeros at its end or removing
// its tail.
func (s *SubList[T]) Resize(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: size %d", ErrInvalidLength, n)
	}
	if err := s.check(); err != nil {
		return err
	}
	size := s.Len()
	if n < size {
		return s.RemoveRange(n, size)
	}
	if n == size {
		return nil
	}
	if n-size > math.MaxInt64-s.parent.Len() {
		return fmt.Errorf("%w: %d elements", ErrCapacityExceeded, n)
	}
	return s.InsertAll(size, zeros[T](n-size))
}

// RemoveIf removes every element of the view for which pred returns true.
func (s *SubList[T]) RemoveIf(pred func(T) bool) (bool, error) {
	removed, err := s.removeIfIn(0, s.Len(), pred)
	return removed > 0, err
}

// RemoveAll removes every element of the view equal to one of values.
func (s *SubList[T]) RemoveAll(values ...T) (bool, error) {
	return s.RemoveIf(memberOf(values, true))
}

// RetainAll removes every element of the view not equal to one of values.
func (s *SubList[T]) RetainAll(values ...T) (bool, error) {
	return s.RemoveIf(memberOf(values, false))
}

func (s *SubList[T]) removeIfIn(from, to int64, pred func(T) bool) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	removed, err := s.parent.removeIfIn(s.from+from, s.from+to, pred)
	s.to -= removed
	return removed, err
}

// IndexOf returns the view index of the first element equal to value, or -1.
func (s *SubList[T]) IndexOf(value T) (int64, error) {
	root, base, err := s.resolve(0, s.Len())
	if err != nil {
		return -1, err
	}
	i := root.indexIn(base, base+s.Len(), value)
	if i < 0 {
		return -1, nil
	}
	return i - base, nil
}

// LastIndexOf returns the view index of the last element equal to value, or -1.
func (s *SubList[T]) LastIndexOf(value T) (int64, error) {
	root, base, err := s.resolve(0, s.Len())
	if err != nil {
		return -1, err
	}
	i := root.lastIndexIn(base, base+s.Len(), value)
	if i < 0 {
		return -1, nil
	}
	return i - base, nil
}

// Contains reports whether value is present in the view.
func (s *SubList[T]) Contains(value T) (bool, error) {
	i, err := s.IndexOf(value)
	return i >= 0, err
}

// Clone copies the view into a new list sharing the root's configuration.
func (s *SubList[T]) Clone() (*BigList[T], error) {
	root, base, err := s.resolve(0, s.Len())
	if err != nil {
		return nil, err
	}
	c := newList[T](root.cfg)
	n := s.Len()
	if err := c.growExact(n); err != nil {
		return nil, err
	}
	for off, seg := range root.store.Chunks(base, base+n) {
		if err := c.store.CopyIn(off-base, seg); err != nil {
			return nil, translateError(err)
		}
	}
	c.size = n
	return c, nil
}

// Iterator returns a bidirectional iterator over the view positioned before start.
func (s *SubList[T]) Iterator(start int64) (*Iterator[T], error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return newIterator[T](s, start)
}

// SubList returns a nested view over [from, to) of this view.
func (s *SubList[T]) SubList(from, to int64) (*SubList[T], error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return newSubList[T](s, from, to)
}

func (s *SubList[T]) resolve(from, to int64) (*BigList[T], int64, error) {
	if err := s.check(); err != nil {
		return nil, 0, err
	}
	if err := checkRange("sublist", from, to, s.Len()); err != nil {
		return nil, 0, err
	}
	return s.parent.resolve(s.from+from, s.from+to)
}

// mustResolve is used by the range functions, which cannot return an error.
func (s *SubList[T]) mustResolve() (*BigList[T], int64) {
	root, base, err := s.resolve(0, s.Len())
	if err != nil {
		panic(err)
	}
	return root, base
}

// Values returns an iterator over the view's elements in order.
// It panics with an error wrapping ErrConcurrentModification if the view is
// stale.
func (s *SubList[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		root, base := s.mustResolve()
		for _, v := range root.rangeAll(base, base+s.Len()) {
			if !yield(v) {
				return
			}
		}
	}
}

// All returns an iterator over view index-value pairs in order.
// It panics like Values on a stale view.
func (s *SubList[T]) All() iter.Seq2[int64, T] {
	return func(yield func(int64, T) bool) {
		root, base := s.mustResolve()
		for i, v := range root.rangeAll(base, base+s.Len()) {
			if !yield(i-base, v) {
				return
			}
		}
	}
}

// Backward returns an iterator over view index-value pairs from last to
// first. It panics like Values on a stale view.
func (s *SubList[T]) Backward() iter.Seq2[int64, T] {
	return func(yield func(int64, T) bool) {
		root, base := s.mustResolve()
		for i, v := range root.rangeBackward(base, base+s.Len()) {
			if !yield(i-base, v) {
				return
			}
		}
	}
}

// Equal reports whether the view and other hold equal elements in order.
// It panics like Values on a stale view.
func (s *SubList[T]) Equal(other Sequence[T]) bool {
	return equalSequences[T](s, other)
}

// Hash returns an order-sensitive hash; equal sequences hash equal.
// It panics like Values on a stale view.
func (s *SubList[T]) Hash() uint64 {
	return hashSequence[T](s)
}

// Compare orders the view and other lexicographically.
// It panics like Values on a stale view.
func (s *SubList[T]) Compare(other Sequence[T]) int {
	return compareSequences[T](s, other)
}

func (s *SubList[T]) String() string {
	if err := s.check(); err != nil {
		return "[" + err.Error() + "]"
	}
	var sb strings.Builder
	formatValues(&sb, s.Values())
	return sb.String()
}

// zeros is a Sequence of n zero values.
type zeros[T Element] int64

func (z zeros[T]) Len() int64 { return int64(z) }

func (z zeros[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		var zero T
		for range int64(z) {
			if !yield(zero) {
				return
			}
		}
	}
}
