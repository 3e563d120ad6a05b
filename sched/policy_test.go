package sched

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/morsel/types"
)

// drainPolicy issues chunks until the work item is exhausted, asserting the
// per-chunk contract along the way, and returns the chunk sizes.
func drainPolicy(t *testing.T, p Policy, total, minSize uint64) []uint64 {
	t.Helper()

	var sizes []uint64
	remaining := total
	for remaining > 0 {
		size := p.NextChunkSize(remaining)
		require.GreaterOrEqual(t, size, uint64(1), "chunk must cover at least one row")
		require.LessOrEqual(t, size, remaining, "chunk must not exceed remaining rows")
		if remaining >= minSize {
			require.GreaterOrEqual(t, size, min(minSize, remaining), "chunk below minimum size")
		}
		sizes = append(sizes, size)
		remaining -= size
	}
	require.EqualValues(t, 0, p.NextChunkSize(0), "exhausted session must yield 0")

	return sizes
}

func sum(sizes []uint64) uint64 {
	var total uint64
	for _, s := range sizes {
		total += s
	}

	return total
}

func TestNewKnownSchemes(t *testing.T) {
	t.Parallel()

	schemes := []types.Scheme{
		types.SchemeStatic,
		types.SchemeSelf,
		types.SchemeGuided,
		types.SchemeTrapezoid,
		types.SchemeFactoring,
		types.SchemeTrapezoidFactoring,
		types.SchemeFixedIncrease,
		types.SchemeVariableIncrease,
		types.SchemePerformanceLoop,
		types.SchemeModifiedStatic,
		types.SchemeModifiedFixedSize,
		types.SchemeProbabilistic,
	}

	for _, scheme := range schemes {
		p, err := New(scheme, 1024, 4, 1)
		require.NoError(t, err)
		require.Equal(t, scheme, p.Scheme())
	}
}

func TestNewInvalidArguments(t *testing.T) {
	t.Parallel()

	_, err := New(types.SchemeGuided, 100, 0, 1)
	require.ErrorIs(t, err, types.ErrInvalidConfig)

	_, err = New(types.Scheme(99), 100, 4, 1)
	require.ErrorIs(t, err, types.ErrUnknownScheme)
}

func TestFeedbackPolicyDetection(t *testing.T) {
	t.Parallel()

	adaptive, err := New(types.SchemePerformanceLoop, 1000, 4, 1)
	require.NoError(t, err)
	_, ok := adaptive.(FeedbackPolicy)
	require.True(t, ok, "performance loop must accept feedback")

	plain, err := New(types.SchemeGuided, 1000, 4, 1)
	require.NoError(t, err)
	_, ok = plain.(FeedbackPolicy)
	require.False(t, ok)
}

// TestAllSchemesTileExactly drives every scheme over a grid of work item
// sizes, worker counts and minimum chunk sizes and checks that the issued
// chunks cover the item exactly: no gap, no overlap, nothing issued twice.
func TestAllSchemesTileExactly(t *testing.T) {
	t.Parallel()

	schemes := []types.Scheme{
		types.SchemeStatic,
		types.SchemeSelf,
		types.SchemeGuided,
		types.SchemeTrapezoid,
		types.SchemeFactoring,
		types.SchemeTrapezoidFactoring,
		types.SchemeFixedIncrease,
		types.SchemeVariableIncrease,
		types.SchemePerformanceLoop,
		types.SchemeModifiedStatic,
		types.SchemeModifiedFixedSize,
		types.SchemeProbabilistic,
	}
	totals := []uint64{1, 5, 100, 1023, 65536, 1 << 20}
	workerCounts := []int{1, 3, 4, 16, 64}
	minSizes := []uint64{1, 8}

	for _, scheme := range schemes {
		for _, total := range totals {
			for _, workers := range workerCounts {
				for _, minSize := range minSizes {
					name := fmt.Sprintf("%s/n=%d/p=%d/m=%d", scheme, total, workers, minSize)
					t.Run(name, func(t *testing.T) {
						t.Parallel()

						p, err := New(scheme, total, workers, minSize, WithSeed(1))
						require.NoError(t, err)

						sizes := drainPolicy(t, p, total, minSize)
						require.EqualValues(t, total, sum(sizes), "chunks must sum to the work item size")
					})
				}
			}
		}
	}
}
