package morsel

import "context"

// ReduceFunc computes the partial result of one chunk.
//
// Like ProcessFunc it runs concurrently across workers; unlike ProcessFunc
// it returns a value that Reduce merges into the session result.
type ReduceFunc[R any] func(ctx context.Context, worker int, chunk Chunk) (R, error)

// MergeFunc combines two partial results into one.
type MergeFunc[R any] func(a, b R) R

// Reduce runs one session that computes a partial result per chunk and
// merges the partials into a single value.
//
// Each worker folds its own chunks into a private slot, and the slots are
// merged after the session completes, so merge must be commutative and
// associative: chunk results arrive in no defined order. Workers that never
// processed a chunk contribute nothing.
//
// Parameters:
//   - ctx: Session context; cancellation aborts the session
//   - lp: Partitioner driving the session
//   - item: Work item whose range is split into chunks
//   - fn: Kernel producing one partial result per chunk
//   - merge: Order-independent combiner of partial results
//
// Returns:
//   - R: Merged result (zero value on error or when no chunk produced one)
//   - SessionStats: Statistics of the completed session
//   - error: Same contract as Partitioner.Run
//
// Example:
//
//	sum, _, err := morsel.Reduce(ctx, lp, item,
//	    func(_ context.Context, _ int, chunk morsel.Chunk) (uint64, error) {
//	        var s uint64
//	        for row := chunk.Range.Begin; row < chunk.Range.End; row++ {
//	            s += data[row]
//	        }
//	        return s, nil
//	    },
//	    func(a, b uint64) uint64 { return a + b },
//	)
func Reduce[R any](ctx context.Context, lp *Partitioner, item WorkItem, fn ReduceFunc[R], merge MergeFunc[R]) (R, SessionStats, error) {
	var zero R
	if fn == nil || merge == nil {
		return zero, SessionStats{}, ErrNilProcessFunc
	}

	// One slot per worker; slot w is written only by worker w, and Run's
	// completion orders the writes before the fold below.
	partials := make([]R, lp.Workers())
	touched := make([]bool, lp.Workers())

	stats, err := lp.Run(ctx, item, func(ctx context.Context, worker int, chunk Chunk) error {
		part, err := fn(ctx, worker, chunk)
		if err != nil {
			return err
		}
		if touched[worker] {
			partials[worker] = merge(partials[worker], part)
		} else {
			partials[worker] = part
			touched[worker] = true
		}

		return nil
	})
	if err != nil {
		return zero, stats, err
	}

	out := zero
	first := true
	for w, ok := range touched {
		if !ok {
			continue
		}
		if first {
			out = partials[w]
			first = false
		} else {
			out = merge(out, partials[w])
		}
	}

	return out, stats, nil
}
