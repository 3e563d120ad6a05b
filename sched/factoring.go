package sched

import "github.com/arloliu/morsel/types"

// Factoring implements factoring with factor 2: chunks are issued in
// batches of one per worker, each batch sized at half the per-worker share
// of the work remaining when the batch begins.
//
// Algorithm, at the start of every batch:
//  1. size = ceil(remaining / (2 * workers))
//  2. issue workers chunks of that size
//
// Batching makes all workers of one round process equal chunks, which
// bounds the finish-time spread of a round by the cost variance of a single
// chunk.
type Factoring struct {
	workers   int
	minSize   uint64
	batchSize uint64
	inBatch   int
}

var (
	_ Policy = (*Factoring)(nil)
	_ Policy = (*TrapezoidFactoring)(nil)
)

// NewFactoring creates a factoring policy with factor 2.
func NewFactoring(workers int, minSize uint64) *Factoring {
	return &Factoring{workers: workers, minSize: minSize}
}

// Scheme returns types.SchemeFactoring.
func (f *Factoring) Scheme() types.Scheme {
	return types.SchemeFactoring
}

// NextChunkSize returns the current batch size, recomputing it from the
// remaining work whenever a batch is exhausted.
func (f *Factoring) NextChunkSize(remaining uint64) uint64 {
	if remaining == 0 {
		return 0
	}
	if f.inBatch == 0 {
		f.batchSize = ceilDiv(remaining, 2*uint64(f.workers))
		f.inBatch = f.workers
	}
	f.inBatch--

	return clamp(f.batchSize, f.minSize, remaining)
}

// TrapezoidFactoring combines factoring batches with the trapezoid series:
// each batch issues one chunk per worker sized at the mean of the next
// workers trapezoid sizes.
//
// Compared to plain Factoring, the decrement is fixed by the trapezoid
// series instead of halving, so late batches stay larger and the total
// chunk count stays close to the trapezoid count.
type TrapezoidFactoring struct {
	workers   int
	minSize   uint64
	current   float64
	delta     float64
	last      uint64
	batchSize uint64
	inBatch   int
}

// NewTrapezoidFactoring creates a trapezoid factoring policy.
func NewTrapezoidFactoring(total uint64, workers int, minSize uint64) *TrapezoidFactoring {
	first, last, delta := trapezoidSeries(total, workers, minSize)

	return &TrapezoidFactoring{
		workers: workers,
		minSize: minSize,
		current: float64(first),
		delta:   delta,
		last:    last,
	}
}

// Scheme returns types.SchemeTrapezoidFactoring.
func (t *TrapezoidFactoring) Scheme() types.Scheme {
	return types.SchemeTrapezoidFactoring
}

// NextChunkSize returns the current batch size. At each batch boundary the
// size becomes the mean of the next workers trapezoid steps and the series
// advances by a full batch.
func (t *TrapezoidFactoring) NextChunkSize(remaining uint64) uint64 {
	if remaining == 0 {
		return 0
	}
	if t.inBatch == 0 {
		// Mean of the arithmetic series current, current-delta, ... over one
		// batch of workers chunks.
		mean := t.current - t.delta*float64(t.workers-1)/2
		if mean < float64(t.last) {
			mean = float64(t.last)
		}
		t.batchSize = uint64(mean)
		t.inBatch = t.workers

		t.current -= t.delta * float64(t.workers)
		if t.current < float64(t.last) {
			t.current = float64(t.last)
		}
	}
	t.inBatch--

	return clamp(t.batchSize, t.minSize, remaining)
}
