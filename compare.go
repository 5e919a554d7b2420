package biglist

import (
	"fmt"
	"iter"
	"strings"
)

// Equal reports whether l and other hold equal elements in the same order.
// other may be any Sequence, such as a SubList or a Slice. Floats compare
// by bit pattern: NaN equals NaN and -0 differs from +0.
func (l *BigList[T]) Equal(other Sequence[T]) bool {
	if o, ok := other.(*BigList[T]); ok {
		if o == l {
			return true
		}
		if o.size != l.size {
			return false
		}
		var i int64
		for _, seg := range o.store.Chunks(0, o.size) {
			for _, v := range seg {
				if !equalElements(l.store.At(i), v) {
					return false
				}
				i++
			}
		}
		return true
	}
	return equalSequences[T](l, other)
}

// Hash returns an order-sensitive hash of the elements. Lists that are
// Equal hash equal, as do a list and a SubList or Slice holding the same
// elements.
func (l *BigList[T]) Hash() uint64 {
	return hashSequence[T](l)
}

// Compare orders l and other lexicographically, using cmp.Compare on
// elements with -0 sorting before +0. A proper prefix sorts first.
func (l *BigList[T]) Compare(other Sequence[T]) int {
	return compareSequences[T](l, other)
}

// String formats the list as [e0, e1, ...].
func (l *BigList[T]) String() string {
	var sb strings.Builder
	formatValues(&sb, l.Values())
	return sb.String()
}

func equalSequences[T Element](a, b Sequence[T]) bool {
	if a.Len() != b.Len() {
		return false
	}
	next, stop := iter.Pull(b.Values())
	defer stop()
	for v := range a.Values() {
		w, ok := next()
		if !ok || !equalElements(v, w) {
			return false
		}
	}
	_, more := next()
	return !more
}

func hashSequence[T Element](s Sequence[T]) uint64 {
	h := hashSeed
	for v := range s.Values() {
		h = combineHash(h, hashElement(v))
	}
	return h
}

func compareSequences[T Element](a, b Sequence[T]) int {
	next, stop := iter.Pull(b.Values())
	defer stop()
	for v := range a.Values() {
		w, ok := next()
		if !ok {
			return 1
		}
		if c := compareElements(v, w); c != 0 {
			return c
		}
	}
	if _, ok := next(); ok {
		return -1
	}
	return 0
}

func formatValues[T Element](sb *strings.Builder, values iter.Seq[T]) {
	sb.WriteByte('[')
	first := true
	for v := range values {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprint(sb, v)
	}
	sb.WriteByte(']')
}
