package sched

import "github.com/arloliu/morsel/types"

// Trapezoid implements trapezoid self-scheduling: chunk sizes decrease
// linearly from a computed first size to a computed last size.
//
// Algorithm:
//  1. first = ceil(total / (2 * workers)), last = max(minSize, 1)
//  2. steps = ceil(2 * total / (first + last))
//  3. delta = (first - last) / (steps - 1)
//  4. chunk i = first - i * delta (rounded down, clamped)
//
// The linear decay issues about twice as many chunks as Static while
// keeping the series length independent of runtime behavior.
type Trapezoid struct {
	current float64
	delta   float64
	last    uint64
	minSize uint64
}

var _ Policy = (*Trapezoid)(nil)

// NewTrapezoid creates a trapezoid self-scheduling policy.
func NewTrapezoid(total uint64, workers int, minSize uint64) *Trapezoid {
	first, last, delta := trapezoidSeries(total, workers, minSize)

	return &Trapezoid{
		current: float64(first),
		delta:   delta,
		last:    last,
		minSize: minSize,
	}
}

// trapezoidSeries computes the shared trapezoid parameters: the first chunk
// size, the last chunk size, and the per-step linear decrement.
func trapezoidSeries(total uint64, workers int, minSize uint64) (first, last uint64, delta float64) {
	first = ceilDiv(total, 2*uint64(workers))
	last = minSize
	if last == 0 {
		last = 1
	}
	if first < last {
		first = last
	}

	steps := ceilDiv(2*total, first+last)
	if steps > 1 {
		delta = float64(first-last) / float64(steps-1)
	}

	return first, last, delta
}

// Scheme returns types.SchemeTrapezoid.
func (t *Trapezoid) Scheme() types.Scheme {
	return types.SchemeTrapezoid
}

// NextChunkSize returns the current trapezoid size and advances the series.
func (t *Trapezoid) NextChunkSize(remaining uint64) uint64 {
	if remaining == 0 {
		return 0
	}
	size := uint64(t.current)
	if size < t.last {
		size = t.last
	}
	t.current -= t.delta
	if t.current < float64(t.last) {
		t.current = float64(t.last)
	}

	return clamp(size, t.minSize, remaining)
}
