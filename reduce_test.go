package morsel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/morsel/types"
)

func TestReduce_SumsPartials(t *testing.T) {
	cfg := TestConfig()
	cfg.Scheme = types.SchemeGuided
	cfg.NumberOfThreads = 4
	cfg.MinimumTaskSize = 16

	lp, err := NewPartitioner(&cfg)
	require.NoError(t, err)

	item := WorkItem{Range: Range{Begin: 1, End: 5001}}
	sum, stats, err := Reduce(context.Background(), lp, item,
		func(_ context.Context, _ int, chunk Chunk) (uint64, error) {
			var s uint64
			for row := chunk.Range.Begin; row < chunk.Range.End; row++ {
				s += row
			}
			return s, nil
		},
		func(a, b uint64) uint64 { return a + b },
	)
	require.NoError(t, err)
	require.EqualValues(t, 5000, stats.Rows)
	require.EqualValues(t, uint64(5000)*5001/2, sum)
}

func TestReduce_ChunkCount(t *testing.T) {
	cfg := TestConfig()
	cfg.Scheme = types.SchemeSelf
	cfg.MinimumTaskSize = 32

	lp, err := NewPartitioner(&cfg)
	require.NoError(t, err)

	item := WorkItem{Range: Range{End: 1024}}
	count, stats, err := Reduce(context.Background(), lp, item,
		func(context.Context, int, Chunk) (uint64, error) { return 1, nil },
		func(a, b uint64) uint64 { return a + b },
	)
	require.NoError(t, err)
	require.Equal(t, stats.Chunks, count)
}

func TestReduce_StructResult(t *testing.T) {
	type bounds struct {
		min uint64
		max uint64
	}

	cfg := TestConfig()
	cfg.Scheme = types.SchemeFactoring
	cfg.NumberOfThreads = 4
	cfg.MinimumTaskSize = 8

	lp, err := NewPartitioner(&cfg)
	require.NoError(t, err)

	item := WorkItem{Range: Range{Begin: 37, End: 4201}}
	got, _, err := Reduce(context.Background(), lp, item,
		func(_ context.Context, _ int, chunk Chunk) (bounds, error) {
			return bounds{min: chunk.Range.Begin, max: chunk.Range.End - 1}, nil
		},
		func(a, b bounds) bounds {
			if b.min < a.min {
				a.min = b.min
			}
			if b.max > a.max {
				a.max = b.max
			}
			return a
		},
	)
	require.NoError(t, err)
	require.Equal(t, bounds{min: 37, max: 4200}, got)
}

func TestReduce_NilFuncs(t *testing.T) {
	cfg := TestConfig()
	lp, err := NewPartitioner(&cfg)
	require.NoError(t, err)

	item := WorkItem{Range: Range{End: 10}}

	_, _, err = Reduce[uint64](context.Background(), lp, item, nil,
		func(a, b uint64) uint64 { return a + b })
	require.ErrorIs(t, err, ErrNilProcessFunc)

	_, _, err = Reduce(context.Background(), lp, item,
		func(context.Context, int, Chunk) (uint64, error) { return 0, nil }, nil)
	require.ErrorIs(t, err, ErrNilProcessFunc)
}

func TestReduce_KernelErrorYieldsZeroValue(t *testing.T) {
	cfg := TestConfig()
	cfg.Scheme = types.SchemeSelf
	cfg.MinimumTaskSize = 8

	lp, err := NewPartitioner(&cfg)
	require.NoError(t, err)

	kernelErr := errors.New("column overflow")
	item := WorkItem{Range: Range{End: 128}}
	sum, _, err := Reduce(context.Background(), lp, item,
		func(_ context.Context, _ int, chunk Chunk) (uint64, error) {
			if chunk.Range.Begin >= 64 {
				return 0, kernelErr
			}
			return chunk.Len(), nil
		},
		func(a, b uint64) uint64 { return a + b },
	)
	require.ErrorIs(t, err, ErrLocalProcessing)
	require.ErrorIs(t, err, kernelErr)
	require.Zero(t, sum)
}
