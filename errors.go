package biglist

import (
	"errors"
	"fmt"

	"github.com/hupe1980/biglist/internal/container"
)

var (
	// ErrIndexOutOfRange is returned when an index argument lies outside the
	// operation's valid range. Index failures are reported as *IndexError or
	// *RangeError, both of which unwrap to it.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNoSuchElement is returned when an iterator has no element in the
	// requested direction, or when popping an empty list.
	ErrNoSuchElement = errors.New("no such element")

	// ErrIllegalState is returned by Iterator.Set and Iterator.Remove when no
	// element has been returned since the last structural change made
	// through the iterator.
	ErrIllegalState = errors.New("illegal iterator state")

	// ErrConcurrentModification is returned when a sublist's bounds no longer
	// fit within its parent.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrCapacityExceeded is returned when a requested capacity cannot be
	// addressed or the memory budget refuses it.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidLength is returned for a negative length or capacity.
	ErrInvalidLength = errors.New("invalid length")
)

// IndexError reports a single index outside [Low, High).
type IndexError struct {
	Op    string
	Index int64
	Low   int64
	High  int64
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [%d, %d)", e.Op, e.Index, e.Low, e.High)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// RangeError reports a [From, To) range that does not fit [0, Len].
type RangeError struct {
	Op   string
	From int64
	To   int64
	Len  int64
}

func (e *RangeError) Error() string {
	if e.From > e.To {
		return fmt.Sprintf("%s: start %d is greater than end %d", e.Op, e.From, e.To)
	}
	return fmt.Sprintf("%s: range [%d, %d) out of bounds for length %d", e.Op, e.From, e.To, e.Len)
}

func (e *RangeError) Unwrap() error { return ErrIndexOutOfRange }

func checkIndex(op string, index, high int64) error {
	if index < 0 || index >= high {
		return &IndexError{Op: op, Index: index, Low: 0, High: high}
	}
	return nil
}

// checkPosition validates an insertion point in [0, size].
func checkPosition(op string, index, size int64) error {
	if index < 0 || index > size {
		return &IndexError{Op: op, Index: index, Low: 0, High: size + 1}
	}
	return nil
}

func checkRange(op string, from, to, size int64) error {
	if from < 0 || from > to || to > size {
		return &RangeError{Op: op, From: from, To: to, Len: size}
	}
	return nil
}

// checkBuffer validates a window [offset, offset+length) of a flat buffer.
func checkBuffer(op string, offset, length, bufLen int) error {
	if offset < 0 || length < 0 {
		return fmt.Errorf("%w: %s: offset %d, length %d", ErrInvalidLength, op, offset, length)
	}
	if offset > bufLen-length {
		return &RangeError{Op: op, From: int64(offset), To: int64(offset) + int64(length), Len: int64(bufLen)}
	}
	return nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, container.ErrCapacityExceeded) {
		return fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
	}
	if errors.Is(err, container.ErrIndexOutOfRange) {
		return fmt.Errorf("%w: %w", ErrIndexOutOfRange, err)
	}

	return err
}
