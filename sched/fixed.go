package sched

import (
	"math"

	"github.com/arloliu/morsel/types"
)

// fixed is the shared core of the fixed-chunk schemes: every chunk has the
// same size, decided at construction.
type fixed struct {
	scheme  types.Scheme
	size    uint64
	minSize uint64
}

func (f *fixed) Scheme() types.Scheme {
	return f.scheme
}

func (f *fixed) NextChunkSize(remaining uint64) uint64 {
	return clamp(f.size, f.minSize, remaining)
}

// Self implements pure self-scheduling: every chunk has the configured
// minimum size.
//
// Self-scheduling achieves the best possible load balance at the price of
// one scheduling transaction per minSize rows, which makes it practical
// only for very irregular row costs or large minimum sizes.
type Self struct {
	fixed
}

var (
	_ Policy = (*Self)(nil)
	_ Policy = (*ModifiedStatic)(nil)
	_ Policy = (*ModifiedFixedSize)(nil)
)

// NewSelf creates a self-scheduling policy issuing minSize-row chunks.
func NewSelf(minSize uint64) *Self {
	if minSize == 0 {
		minSize = 1
	}

	return &Self{fixed: fixed{scheme: types.SchemeSelf, size: minSize, minSize: minSize}}
}

// ModifiedFixedSize issues fixed chunks using the closed-form size
// ceil(total * ln2 / (2 * workers)).
//
// The size approximates the fixed-size-chunking optimum without requiring
// per-row cost variance estimates, yielding a few dozen chunks per session
// independent of the total row count.
type ModifiedFixedSize struct {
	fixed
}

// NewModifiedFixedSize creates a modified fixed-size chunking policy.
func NewModifiedFixedSize(total uint64, workers int, minSize uint64) *ModifiedFixedSize {
	size := uint64(math.Ceil(float64(total) * math.Ln2 / (2 * float64(workers))))

	return &ModifiedFixedSize{fixed: fixed{
		scheme:  types.SchemeModifiedFixedSize,
		size:    size,
		minSize: minSize,
	}}
}
