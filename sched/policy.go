package sched

import (
	"fmt"
	"time"

	"github.com/arloliu/morsel/types"
)

// Policy computes chunk sizes for one scheduling session.
//
// A policy instance is created per session and consumed serially: the
// issuing queue guarantees NextChunkSize calls never overlap. Policies are
// advisory with respect to totals; the issuer clamps the final chunk so a
// session always tiles its work item exactly.
type Policy interface {
	// Scheme returns the scheme the policy implements.
	Scheme() types.Scheme

	// NextChunkSize returns the row count of the next chunk.
	//
	// Parameters:
	//   - remaining: Number of rows not yet issued
	//
	// Returns:
	//   - uint64: Next chunk size, in [minSize, remaining] (the whole
	//     remainder when fewer than minSize rows remain), or 0 when
	//     remaining is 0
	NextChunkSize(remaining uint64) uint64
}

// FeedbackPolicy is implemented by schemes that resize chunks using runtime
// measurements. Issuers that pace production call Observe once per finished
// chunk.
type FeedbackPolicy interface {
	Policy

	// Observe records that a worker processed size rows in elapsed time.
	// Implementations must be safe for concurrent use; observations arrive
	// from worker goroutines while the producer keeps issuing.
	Observe(worker int, size uint64, elapsed time.Duration)
}

// Option configures optional policy parameters.
type Option func(*policyOptions)

type policyOptions struct {
	seed           uint64
	staticFraction float64
}

// WithSeed sets the seed for randomized schemes, making their chunk series
// reproducible. A zero seed selects a time-derived seed.
func WithSeed(seed uint64) Option {
	return func(o *policyOptions) {
		o.seed = seed
	}
}

// WithStaticFraction sets the fraction of the work item that
// SchemePerformanceLoop issues statically before switching to feedback
// sizing. The default is 0.5; values are clamped into (0, 1].
func WithStaticFraction(fraction float64) Option {
	return func(o *policyOptions) {
		o.staticFraction = fraction
	}
}

// New creates the policy for one scheduling session.
//
// Parameters:
//   - scheme: Scheduling scheme to instantiate
//   - total: Total rows of the work item
//   - workers: Number of workers participating in the session
//   - minSize: Minimum chunk size (0 defaults to 1)
//   - opts: Optional parameters for randomized and adaptive schemes
//
// Returns:
//   - Policy: Session policy (also a FeedbackPolicy for adaptive schemes)
//   - error: ErrUnknownScheme for invalid schemes, ErrInvalidConfig for a
//     non-positive worker count
func New(scheme types.Scheme, total uint64, workers int, minSize uint64, opts ...Option) (Policy, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: workers must be >= 1, got %d", types.ErrInvalidConfig, workers)
	}
	if minSize == 0 {
		minSize = 1
	}

	options := policyOptions{staticFraction: defaultStaticFraction}
	for _, opt := range opts {
		opt(&options)
	}

	switch scheme {
	case types.SchemeStatic:
		return NewStatic(total, workers, minSize), nil
	case types.SchemeSelf:
		return NewSelf(minSize), nil
	case types.SchemeGuided:
		return NewGuided(workers, minSize), nil
	case types.SchemeTrapezoid:
		return NewTrapezoid(total, workers, minSize), nil
	case types.SchemeFactoring:
		return NewFactoring(workers, minSize), nil
	case types.SchemeTrapezoidFactoring:
		return NewTrapezoidFactoring(total, workers, minSize), nil
	case types.SchemeFixedIncrease:
		return NewFixedStep(total, workers, minSize), nil
	case types.SchemeVariableIncrease:
		return NewVariableStep(total, workers, minSize), nil
	case types.SchemePerformanceLoop:
		return NewPerformanceLoop(total, workers, minSize, options.staticFraction), nil
	case types.SchemeModifiedStatic:
		return NewModifiedStatic(total, workers, minSize), nil
	case types.SchemeModifiedFixedSize:
		return NewModifiedFixedSize(total, workers, minSize), nil
	case types.SchemeProbabilistic:
		return NewProbabilistic(workers, minSize, options.seed), nil
	default:
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownScheme, int(scheme))
	}
}

// clamp bounds a proposed chunk size to the session contract: at least
// minSize (or the whole remainder when less than minSize remains), at most
// remaining, and 0 only when nothing remains.
func clamp(size, minSize, remaining uint64) uint64 {
	if remaining == 0 {
		return 0
	}
	if size < minSize {
		size = minSize
	}
	if size == 0 {
		size = 1
	}
	if size > remaining {
		size = remaining
	}

	return size
}

// ceilDiv returns ceil(a/b) for b > 0.
func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return a
	}

	return (a + b - 1) / b
}
