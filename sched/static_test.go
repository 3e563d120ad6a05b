package sched

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticEvenSplit(t *testing.T) {
	t.Parallel()

	t.Run("divisible", func(t *testing.T) {
		p := NewStatic(100, 4, 1)
		sizes := drainPolicy(t, p, 100, 1)
		require.Equal(t, []uint64{25, 25, 25, 25}, sizes)
	})

	t.Run("remainder spread over first chunks", func(t *testing.T) {
		p := NewStatic(102, 4, 1)
		sizes := drainPolicy(t, p, 102, 1)
		require.Equal(t, []uint64{26, 26, 25, 25}, sizes)
	})

	t.Run("fewer rows than workers", func(t *testing.T) {
		p := NewStatic(2, 4, 1)
		sizes := drainPolicy(t, p, 2, 1)
		require.Equal(t, []uint64{1, 1}, sizes)
	})

	t.Run("single worker takes everything", func(t *testing.T) {
		p := NewStatic(77, 1, 1)
		sizes := drainPolicy(t, p, 77, 1)
		require.Equal(t, []uint64{77}, sizes)
	})
}

func TestStaticRespectsMinimumSize(t *testing.T) {
	t.Parallel()

	// Even shares of 100/64 rows are below the minimum; the minimum wins
	// and the session issues fewer, larger chunks.
	p := NewStatic(100, 64, 8)
	sizes := drainPolicy(t, p, 100, 8)
	require.EqualValues(t, 100, sum(sizes))
	for i, size := range sizes {
		if i < len(sizes)-1 {
			require.GreaterOrEqual(t, size, uint64(8))
		}
	}
}

func TestSplitEven(t *testing.T) {
	t.Parallel()

	require.Equal(t, []uint64{26, 26, 25, 25}, SplitEven(102, 4))
	require.Equal(t, []uint64{1, 1}, SplitEven(2, 4))
	require.Nil(t, SplitEven(0, 4))
	require.Nil(t, SplitEven(10, 0))
}

func TestModifiedStaticGranularity(t *testing.T) {
	t.Parallel()

	// ceil(1000 / (4 * 4)) = 63 rows per chunk, roughly 16 chunks.
	p := NewModifiedStatic(1000, 4, 1)
	sizes := drainPolicy(t, p, 1000, 1)
	require.EqualValues(t, 63, sizes[0])
	require.Len(t, sizes, 16)
	require.EqualValues(t, 1000, sum(sizes))
}
