package biglist

import "fmt"

// lastReturned records which call produced the element that Set and Remove
// act on.
type lastReturned uint8

const (
	lastNone lastReturned = iota
	lastAfterNext
	lastAfterPrevious
)

// Iterator is a bidirectional cursor over a List. The cursor sits between
// elements: NextIndex is the index Next would return, PreviousIndex the one
// Previous would return.
//
// Set and Remove act on the element most recently returned by Next or
// Previous. Add and Remove invalidate that element until the next call to
// Next or Previous.
type Iterator[T Element] struct {
	target List[T]
	next   int64
	last   lastReturned
}

func newIterator[T Element](target List[T], start int64) (*Iterator[T], error) {
	if err := checkPosition("iterator", start, target.Len()); err != nil {
		return nil, err
	}
	return &Iterator[T]{target: target, next: start}, nil
}

// HasNext reports whether Next would return an element.
func (it *Iterator[T]) HasNext() bool { return it.next < it.target.Len() }

// HasPrevious reports whether Previous would return an element.
func (it *Iterator[T]) HasPrevious() bool { return it.next > 0 }

// NextIndex returns the index of the element Next would return.
func (it *Iterator[T]) NextIndex() int64 { return it.next }

// PreviousIndex returns the index of the element Previous would return,
// or -1 at the start.
func (it *Iterator[T]) PreviousIndex() int64 { return it.next - 1 }

// Next returns the next element and advances the cursor.
func (it *Iterator[T]) Next() (T, error) {
	if !it.HasNext() {
		var zero T
		return zero, fmt.Errorf("%w: next at index %d", ErrNoSuchElement, it.next)
	}
	v, err := it.target.Get(it.next)
	if err != nil {
		return v, err
	}
	it.next++
	it.last = lastAfterNext
	return v, nil
}

// Previous moves the cursor back and returns the element it passed.
func (it *Iterator[T]) Previous() (T, error) {
	if !it.HasPrevious() {
		var zero T
		return zero, fmt.Errorf("%w: previous at index 0", ErrNoSuchElement)
	}
	v, err := it.target.Get(it.next - 1)
	if err != nil {
		return v, err
	}
	it.next--
	it.last = lastAfterPrevious
	return v, nil
}

// Skip advances the cursor by up to n elements and returns how many were
// skipped. If it moved, the last element skipped over becomes the last
// returned one, as after Next, so Set and Remove act on it.
func (it *Iterator[T]) Skip(n int64) int64 {
	if n <= 0 {
		return 0
	}
	skipped := min(n, it.target.Len()-it.next)
	if skipped > 0 {
		it.next += skipped
		it.last = lastAfterNext
	}
	return skipped
}

// Back moves the cursor back by up to n elements and returns how many were
// passed. If it moved, the last element passed becomes the last returned
// one, as after Previous, so Set and Remove act on it.
func (it *Iterator[T]) Back(n int64) int64 {
	if n <= 0 {
		return 0
	}
	passed := min(n, it.next)
	if passed > 0 {
		it.next -= passed
		it.last = lastAfterPrevious
	}
	return passed
}

func (it *Iterator[T]) lastIndex(op string) (int64, error) {
	switch it.last {
	case lastAfterNext:
		return it.next - 1, nil
	case lastAfterPrevious:
		return it.next, nil
	default:
		return 0, fmt.Errorf("%w: %s without a preceding next or previous", ErrIllegalState, op)
	}
}

// Set replaces the element last returned by Next or Previous.
func (it *Iterator[T]) Set(value T) error {
	idx, err := it.lastIndex("set")
	if err != nil {
		return err
	}
	_, err = it.target.Set(idx, value)
	return err
}

// Remove removes the element last returned by Next or Previous.
func (it *Iterator[T]) Remove() error {
	idx, err := it.lastIndex("remove")
	if err != nil {
		return err
	}
	if _, err := it.target.RemoveAt(idx); err != nil {
		return err
	}
	if it.last == lastAfterNext {
		it.next--
	}
	it.last = lastNone
	return nil
}

// Add inserts value at the cursor; a following Next is unaffected and a
// following Previous returns value.
func (it *Iterator[T]) Add(value T) error {
	if err := it.target.Insert(it.next, value); err != nil {
		return err
	}
	it.next++
	it.last = lastNone
	return nil
}
