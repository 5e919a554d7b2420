package biglist

import (
	"cmp"
	"iter"

	"github.com/hupe1980/biglist/internal/conv"
)

// Element is the set of numeric types a BigList can hold.
type Element interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sequence is an ordered, sized stream of elements.
// *BigList, *SubList and Slice all implement it.
type Sequence[T Element] interface {
	Len() int64
	Values() iter.Seq[T]
}

// Slice adapts a flat slice to Sequence.
type Slice[T Element] []T

// Len implements Sequence.
func (s Slice[T]) Len() int64 { return int64(len(s)) }

// Values implements Sequence.
func (s Slice[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	}
}

// nanKey is the key every NaN maps to: the float64 quiet NaN, which no
// 32-bit pattern can collide with.
const nanKey uint64 = 0x7ff8000000000000

// elementKey returns the bit pattern element equality is defined on. Floats
// compare by bits with all NaNs folded into one, so NaN equals NaN and -0
// differs from +0. For integers it is injective, like ==.
func elementKey[T Element](v T) uint64 {
	if v != v {
		return nanKey
	}
	return conv.Bits(v)
}

// equalElements reports whether a and b are the same element.
func equalElements[T Element](a, b T) bool {
	if a == b {
		return a != 0 || elementKey(a) == elementKey(b)
	}
	return a != a && b != b
}

// compareElements orders like cmp.Compare, with -0 before +0.
func compareElements[T Element](a, b T) int {
	c := cmp.Compare(a, b)
	if c == 0 && a == 0 {
		// Only a negative zero has a non-zero key.
		return cmp.Compare(elementKey(b), elementKey(a))
	}
	return c
}

// hashElement returns a 64-bit hash of v's element key, so equal elements
// hash equal.
func hashElement[T Element](v T) uint64 {
	b := elementKey(v)
	b ^= b >> 32
	return b * 0x9e3779b97f4a7c15
}

// hashSeed is the initial accumulator for list hashes.
const hashSeed uint64 = 1

func combineHash(h, elem uint64) uint64 {
	return 31*h + elem
}
