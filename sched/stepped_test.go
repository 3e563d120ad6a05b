package sched

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedStepSeries(t *testing.T) {
	t.Parallel()

	const total, workers = 1024, 4
	p := NewFixedStep(total, workers, 1)
	sizes := drainPolicy(t, p, total, 1)
	require.EqualValues(t, total, sum(sizes))

	// stages are one chunk per worker wide and strictly ordered downwards
	// until the minimum is reached
	require.Equal(t, sizes[0], sizes[workers-1], "first stage not uniform")
	for i := 1; i < len(sizes); i++ {
		require.LessOrEqual(t, sizes[i], sizes[i-1])
	}

	// the fixed decrement between the first two stages
	require.Equal(t, sizes[0]-sizes[workers], sizes[workers]-sizes[2*workers])
}

func TestVariableStepSeries(t *testing.T) {
	t.Parallel()

	const total, workers = 1024, 4
	p := NewVariableStep(total, workers, 1)
	sizes := drainPolicy(t, p, total, 1)
	require.EqualValues(t, total, sum(sizes))

	for i := 1; i < len(sizes); i++ {
		require.LessOrEqual(t, sizes[i], sizes[i-1])
	}

	// decrement halves: stage deltas shrink
	d1 := sizes[0] - sizes[workers]
	d2 := sizes[workers] - sizes[2*workers]
	require.Greater(t, d1, d2)
}

func TestSteppedSharedFirstChunk(t *testing.T) {
	t.Parallel()

	// both stage-based schemes start from the same computed first size
	f := NewFixedStep(4096, 8, 1)
	v := NewVariableStep(4096, 8, 1)
	require.Equal(t, f.NextChunkSize(4096), v.NextChunkSize(4096))
}
