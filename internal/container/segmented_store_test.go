package container

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAllocator struct {
	limit int64
	used  int64
}

func (a *countingAllocator) TryAcquireMemory(bytes int64) bool {
	if a.limit > 0 && a.used+bytes > a.limit {
		return false
	}
	a.used += bytes
	return true
}

func (a *countingAllocator) ReleaseMemory(bytes int64) { a.used -= bytes }

func filled(t *testing.T, bits uint, n int64) *SegmentedStore[int64] {
	t.Helper()
	s := NewSegmentedStore[int64](bits, nil)
	require.NoError(t, s.Grow(n))
	for i := range n {
		s.Put(i, i)
	}
	return s
}

func contents(s *SegmentedStore[int64]) []int64 {
	out := make([]int64, s.Capacity())
	_ = s.CopyOut(0, out)
	return out
}

func TestSegmentedStore_Empty(t *testing.T) {
	s := NewSegmentedStore[int32](4, nil)
	assert.Equal(t, int64(0), s.Capacity())
	assert.Equal(t, 0, s.Segments())
	assert.Equal(t, int64(16), s.SegmentLength())

	_, err := s.Get(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, s.Set(0, 1), ErrIndexOutOfRange)
}

func TestSegmentedStore_InvalidBits(t *testing.T) {
	assert.Panics(t, func() { NewSegmentedStore[int32](0, nil) })
	assert.Panics(t, func() { NewSegmentedStore[int32](31, nil) })
}

func TestSegmentedStore_GrowShortLastSegment(t *testing.T) {
	s := NewSegmentedStore[int32](4, nil)

	require.NoError(t, s.Grow(5))
	assert.Equal(t, int64(5), s.Capacity())
	assert.Equal(t, 1, s.Segments())

	require.NoError(t, s.Set(4, 44))

	// Widening the short segment keeps its content.
	require.NoError(t, s.Grow(37))
	assert.Equal(t, int64(37), s.Capacity())
	assert.Equal(t, 3, s.Segments())
	v, err := s.Get(4)
	require.NoError(t, err)
	assert.Equal(t, int32(44), v)

	_, err = s.Get(37)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	// Growing never shrinks.
	require.NoError(t, s.Grow(10))
	assert.Equal(t, int64(37), s.Capacity())
}

func TestSegmentedStore_GrowBeyondMax(t *testing.T) {
	s := NewSegmentedStore[byte](4, nil)
	err := s.Grow(s.MaxCapacity() + 1)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, int64(0), s.Capacity())
	assert.Equal(t, 0, s.Segments())
}

func TestSegmentedStore_Trim(t *testing.T) {
	s := filled(t, 4, 50)
	assert.Equal(t, 4, s.Segments())

	s.Trim(17) // index 16 lives in segment 1
	assert.Equal(t, 2, s.Segments())
	assert.Equal(t, int64(32), s.Capacity())
	v, err := s.Get(31)
	require.NoError(t, err)
	assert.Equal(t, int64(31), v)

	s.Trim(40) // nothing to release
	assert.Equal(t, 2, s.Segments())

	s.Trim(0)
	assert.Equal(t, 0, s.Segments())
	assert.Equal(t, int64(0), s.Capacity())

	require.NoError(t, s.Grow(3))
	assert.Equal(t, int64(3), s.Capacity())
}

func TestSegmentedStore_CopyRangeMatchesCopy(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for _, bits := range []uint{1, 2, 3, 5} {
		const n = 97
		for range 500 {
			s := filled(t, bits, n)
			ref := contents(s)

			length := r.Int64N(n + 1)
			src := r.Int64N(n - length + 1)
			dst := r.Int64N(n - length + 1)

			require.NoError(t, s.CopyRange(src, dst, length))
			copy(ref[dst:dst+length], ref[src:src+length])
			require.Equal(t, ref, contents(s), "bits=%d src=%d dst=%d len=%d", bits, src, dst, length)
		}
	}
}

func TestSegmentedStore_CopyRangeBounds(t *testing.T) {
	s := filled(t, 3, 20)
	assert.ErrorIs(t, s.CopyRange(15, 0, 6), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.CopyRange(0, 15, 6), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.CopyRange(-1, 0, 1), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.CopyRange(0, 0, -1), ErrIndexOutOfRange)
	assert.NoError(t, s.CopyRange(20, 20, 0))
}

func TestSegmentedStore_Clear(t *testing.T) {
	s := filled(t, 2, 13)
	require.NoError(t, s.Clear(3, 11))

	got := contents(s)
	for i, v := range got {
		if i >= 3 && i < 11 {
			assert.Zero(t, v, "index %d", i)
		} else {
			assert.Equal(t, int64(i), v)
		}
	}
	assert.ErrorIs(t, s.Clear(10, 14), ErrIndexOutOfRange)
}

func TestSegmentedStore_CopyInOut(t *testing.T) {
	s := NewSegmentedStore[int64](2, nil)
	require.NoError(t, s.Grow(11))

	require.NoError(t, s.CopyIn(1, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}))
	out := make([]int64, 9)
	require.NoError(t, s.CopyOut(1, out))
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}, out)

	assert.ErrorIs(t, s.CopyIn(5, make([]int64, 7)), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.CopyOut(10, make([]int64, 2)), ErrIndexOutOfRange)
}

func TestSegmentedStore_Chunks(t *testing.T) {
	s := filled(t, 2, 10)

	var bases []int64
	var flat []int64
	for base, seg := range s.Chunks(3, 9) {
		bases = append(bases, base)
		flat = append(flat, seg...)
	}
	assert.Equal(t, []int64{3, 4, 8}, bases)
	assert.Equal(t, []int64{3, 4, 5, 6, 7, 8}, flat)

	bases = bases[:0]
	flat = flat[:0]
	for base, seg := range s.ChunksBackward(3, 9) {
		bases = append(bases, base)
		flat = append(flat, seg...)
	}
	assert.Equal(t, []int64{8, 4, 3}, bases)
	assert.Equal(t, []int64{8, 4, 5, 6, 7, 3}, flat)

	// Early termination.
	calls := 0
	for range s.Chunks(0, 10) {
		calls++
		break
	}
	assert.Equal(t, 1, calls)
}

func TestSegmentedStore_CloneIsIndependent(t *testing.T) {
	s := filled(t, 3, 20)
	c, err := s.Clone()
	require.NoError(t, err)

	require.Equal(t, contents(s), contents(c))
	for k := range s.Segments() {
		assert.NotSame(t, &s.segments[k][0], &c.segments[k][0])
	}

	c.Put(7, -1)
	assert.Equal(t, int64(7), s.At(7))
}

func TestSegmentedStore_Accounting(t *testing.T) {
	alloc := &countingAllocator{limit: 8 * 40}
	s := NewSegmentedStore[int64](4, alloc)

	require.NoError(t, s.Grow(20))
	assert.Equal(t, int64(8*20), alloc.used)

	require.NoError(t, s.Grow(40))
	assert.Equal(t, int64(8*40), alloc.used)

	err := s.Grow(41)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, int64(40), s.Capacity())

	_, err = s.Clone()
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	s.Trim(16)
	assert.Equal(t, int64(8*16), alloc.used)

	s.Release()
	assert.Zero(t, alloc.used)
}
