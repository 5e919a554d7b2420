package biglist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterator(t *testing.T) {
	t.Run("ForwardAndBackward", func(t *testing.T) {
		l := seqList(t, 13, WithSegmentBits(2))
		it, err := l.Iterator(0)
		require.NoError(t, err)

		var forward []int64
		for it.HasNext() {
			v, err := it.Next()
			require.NoError(t, err)
			forward = append(forward, v)
		}
		assert.Equal(t, toSlice[int64](l), forward)
		_, err = it.Next()
		assert.ErrorIs(t, err, ErrNoSuchElement)
		assert.Equal(t, int64(13), it.NextIndex())

		var backward []int64
		for it.HasPrevious() {
			v, err := it.Previous()
			require.NoError(t, err)
			backward = append(backward, v)
		}
		assert.Len(t, backward, 13)
		for i, v := range backward {
			assert.Equal(t, int64(12-i), v)
		}
		_, err = it.Previous()
		assert.ErrorIs(t, err, ErrNoSuchElement)
		assert.Equal(t, int64(-1), it.PreviousIndex())
	})

	t.Run("StartBounds", func(t *testing.T) {
		empty := New[int64]()
		_, err := empty.Iterator(-1)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		_, err = empty.Iterator(1)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)

		l := seqList(t, 5)
		it, err := l.Iterator(5)
		require.NoError(t, err)
		assert.False(t, it.HasNext())
		v, err := it.Previous()
		require.NoError(t, err)
		assert.Equal(t, int64(4), v)
	})

	t.Run("SetRequiresLastReturned", func(t *testing.T) {
		l := seqList(t, 5)
		it, err := l.Iterator(0)
		require.NoError(t, err)

		assert.ErrorIs(t, it.Set(9), ErrIllegalState)
		assert.ErrorIs(t, it.Remove(), ErrIllegalState)

		_, err = it.Next()
		require.NoError(t, err)
		require.NoError(t, it.Set(9))
		_, err = it.Previous()
		require.NoError(t, err)
		require.NoError(t, it.Set(8))
		assert.Equal(t, []int64{8, 1, 2, 3, 4}, toSlice[int64](l))
	})

	t.Run("RemoveAfterNextAndPrevious", func(t *testing.T) {
		l := seqList(t, 6)
		it, err := l.Iterator(0)
		require.NoError(t, err)

		_, _ = it.Next()
		_, _ = it.Next() // 1
		require.NoError(t, it.Remove())
		assert.Equal(t, int64(1), it.NextIndex())
		assert.ErrorIs(t, it.Remove(), ErrIllegalState)
		assert.ErrorIs(t, it.Set(0), ErrIllegalState)

		v, err := it.Next()
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)

		v, err = it.Previous()
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)
		require.NoError(t, it.Remove())
		assert.Equal(t, int64(1), it.NextIndex())
		assert.Equal(t, []int64{0, 3, 4, 5}, toSlice[int64](l))
	})

	t.Run("Add", func(t *testing.T) {
		l := New[int64]()
		it, err := l.Iterator(0)
		require.NoError(t, err)

		require.NoError(t, it.Add(1))
		require.NoError(t, it.Add(2))
		assert.Equal(t, int64(2), it.NextIndex())
		assert.ErrorIs(t, it.Set(0), ErrIllegalState)
		assert.False(t, it.HasNext())

		v, err := it.Previous()
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)

		require.NoError(t, it.Add(3))
		assert.Equal(t, []int64{1, 3, 2}, toSlice[int64](l))
		v, err = it.Next()
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)
	})

	t.Run("SkipAndBack", func(t *testing.T) {
		l := seqList(t, 10)
		it, err := l.Iterator(2)
		require.NoError(t, err)

		assert.Equal(t, int64(5), it.Skip(5))
		assert.Equal(t, int64(7), it.NextIndex())
		assert.Equal(t, int64(3), it.Skip(100))
		assert.Zero(t, it.Skip(1))

		require.NoError(t, it.Set(-9))
		v, _ := l.Get(9)
		assert.Equal(t, int64(-9), v)

		assert.Equal(t, int64(10), it.Back(100))
		assert.Zero(t, it.Back(-1))
		assert.Equal(t, int64(0), it.NextIndex())

		// Back leaves the element passed last open to Remove.
		require.NoError(t, it.Remove())
		assert.Equal(t, int64(9), l.Len())
		v, _ = l.Get(0)
		assert.Equal(t, int64(1), v)
	})

	t.Run("OverSubList", func(t *testing.T) {
		l := seqList(t, 20, WithSegmentBits(2))
		view, err := l.SubList(5, 10)
		require.NoError(t, err)

		it, err := view.Iterator(0)
		require.NoError(t, err)
		var got []int64
		for it.HasNext() {
			v, err := it.Next()
			require.NoError(t, err)
			got = append(got, v)
			if v%2 == 0 {
				require.NoError(t, it.Remove())
			}
		}
		assert.Equal(t, []int64{5, 6, 7, 8, 9}, got)
		assert.Equal(t, int64(3), view.Len())
		assert.Equal(t, int64(18), l.Len())

		require.NoError(t, it.Add(100))
		v, err := l.Get(8)
		require.NoError(t, err)
		assert.Equal(t, int64(100), v)

		// A parent truncated below the view makes the iterator fail.
		require.NoError(t, l.Resize(6))
		_, err = it.Previous()
		assert.ErrorIs(t, err, ErrConcurrentModification)
	})
}
