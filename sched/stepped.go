package sched

import (
	"math"

	"github.com/arloliu/morsel/types"
)

// steppedSeries computes the shared parameters of the stage-based schemes:
// the stage count and the first chunk size.
//
//	stages = max(2, ceil(log2(total/workers + 1)))
//	first  = ceil(2 * total / ((stages + 1) * workers))
func steppedSeries(total uint64, workers int) (stages, first uint64) {
	perWorker := float64(total) / float64(workers)
	stages = uint64(math.Ceil(math.Log2(perWorker + 1)))
	if stages < 2 {
		stages = 2
	}
	first = ceilDiv(2*total, (stages+1)*uint64(workers))

	return stages, first
}

// FixedStep decreases the chunk size by a fixed arithmetic step: the
// session is divided into stages of one chunk per worker, and each stage's
// chunk is smaller than the previous stage's by a constant decrement.
//
// Algorithm:
//  1. stages, first per steppedSeries
//  2. step = ceil((first - minSize) / (stages - 1))
//  3. stage k issues workers chunks of first - k * step, floored at minSize
type FixedStep struct {
	workers int
	minSize uint64
	size    uint64
	step    uint64
	inStage int
}

var (
	_ Policy = (*FixedStep)(nil)
	_ Policy = (*VariableStep)(nil)
)

// NewFixedStep creates a fixed-step policy.
func NewFixedStep(total uint64, workers int, minSize uint64) *FixedStep {
	if minSize == 0 {
		minSize = 1
	}
	stages, first := steppedSeries(total, workers)

	var step uint64
	if first > minSize {
		step = ceilDiv(first-minSize, stages-1)
	}

	return &FixedStep{
		workers: workers,
		minSize: minSize,
		size:    first,
		step:    step,
		inStage: workers,
	}
}

// Scheme returns types.SchemeFixedIncrease.
func (f *FixedStep) Scheme() types.Scheme {
	return types.SchemeFixedIncrease
}

// NextChunkSize returns the current stage size, advancing the stage every
// workers issuances.
func (f *FixedStep) NextChunkSize(remaining uint64) uint64 {
	if remaining == 0 {
		return 0
	}
	if f.inStage == 0 {
		if f.size > f.minSize+f.step {
			f.size -= f.step
		} else {
			f.size = f.minSize
		}
		f.inStage = f.workers
	}
	f.inStage--

	return clamp(f.size, f.minSize, remaining)
}

// VariableStep decreases the chunk size by a step that halves each stage,
// yielding a roughly geometric decay from the same first size as FixedStep.
//
// Algorithm:
//  1. stages, first per steppedSeries (stage count is implicit here)
//  2. step_0 = ceil(first / 2), step_{k+1} = ceil(step_k / 2)
//  3. stage k+1 issues chunks of size_k - step_k, floored at minSize
type VariableStep struct {
	workers int
	minSize uint64
	size    uint64
	step    uint64
	inStage int
}

// NewVariableStep creates a variable-step policy.
func NewVariableStep(total uint64, workers int, minSize uint64) *VariableStep {
	if minSize == 0 {
		minSize = 1
	}
	_, first := steppedSeries(total, workers)

	return &VariableStep{
		workers: workers,
		minSize: minSize,
		size:    first,
		step:    ceilDiv(first, 2),
		inStage: workers,
	}
}

// Scheme returns types.SchemeVariableIncrease.
func (v *VariableStep) Scheme() types.Scheme {
	return types.SchemeVariableIncrease
}

// NextChunkSize returns the current stage size, halving the decrement at
// every stage boundary.
func (v *VariableStep) NextChunkSize(remaining uint64) uint64 {
	if remaining == 0 {
		return 0
	}
	if v.inStage == 0 {
		if v.size > v.minSize+v.step {
			v.size -= v.step
		} else {
			v.size = v.minSize
		}
		v.step = ceilDiv(v.step, 2)
		v.inStage = v.workers
	}
	v.inStage--

	return clamp(v.size, v.minSize, remaining)
}
