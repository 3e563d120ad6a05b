package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRangeLen(t *testing.T) {
	t.Parallel()

	require.EqualValues(t, 100, Range{Begin: 0, End: 100}.Len())
	require.EqualValues(t, 1, Range{Begin: 41, End: 42}.Len())

	// inverted and empty ranges cover no rows
	require.EqualValues(t, 0, Range{Begin: 10, End: 10}.Len())
	require.EqualValues(t, 0, Range{Begin: 10, End: 5}.Len())
	require.True(t, Range{Begin: 10, End: 5}.IsEmpty())
	require.False(t, Range{Begin: 0, End: 1}.IsEmpty())
}

func TestRangeSplitAt(t *testing.T) {
	t.Parallel()

	r := Range{Begin: 10, End: 20}

	left, right := r.SplitAt(14)
	require.Equal(t, Range{Begin: 10, End: 14}, left)
	require.Equal(t, Range{Begin: 14, End: 20}, right)
	require.Equal(t, r.Len(), left.Len()+right.Len())

	// split point clamped into the range
	left, right = r.SplitAt(5)
	require.True(t, left.IsEmpty())
	require.Equal(t, r, right)

	left, right = r.SplitAt(100)
	require.Equal(t, r, left)
	require.True(t, right.IsEmpty())
}

func TestRangeString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[0,1024)", Range{Begin: 0, End: 1024}.String())
}

func TestChunkLen(t *testing.T) {
	t.Parallel()

	c := Chunk{Range: Range{Begin: 128, End: 256}, Seq: 7, Queue: 2}
	require.EqualValues(t, 128, c.Len())
}
