package sched

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrapezoidSeries(t *testing.T) {
	t.Parallel()

	const total = 1000
	p := NewTrapezoid(total, 4, 1)
	sizes := drainPolicy(t, p, total, 1)

	// first chunk is half the even share: ceil(1000 / (2*4)) = 125
	require.EqualValues(t, 125, sizes[0])

	for i := 1; i < len(sizes); i++ {
		require.LessOrEqual(t, sizes[i], sizes[i-1], "trapezoid sizes must not increase")
	}
	require.EqualValues(t, total, sum(sizes))
}

func TestTrapezoidTinyItem(t *testing.T) {
	t.Parallel()

	p := NewTrapezoid(3, 8, 1)
	sizes := drainPolicy(t, p, 3, 1)
	require.EqualValues(t, 3, sum(sizes))
}

func TestTrapezoidFactoringBatches(t *testing.T) {
	t.Parallel()

	const total, workers = 1024, 4
	p := NewTrapezoidFactoring(total, workers, 1)
	sizes := drainPolicy(t, p, total, 1)
	require.EqualValues(t, total, sum(sizes))

	// chunks within one batch share a size, and batch sizes never increase
	for batch := 0; (batch+1)*workers <= len(sizes); batch++ {
		first := sizes[batch*workers]
		for i := 1; i < workers; i++ {
			idx := batch*workers + i
			if idx == len(sizes)-1 {
				break // final chunk is the clamped remainder
			}
			require.Equal(t, first, sizes[idx], "batch %d not uniform", batch)
		}
		if batch > 0 {
			require.LessOrEqual(t, first, sizes[(batch-1)*workers])
		}
	}
}
