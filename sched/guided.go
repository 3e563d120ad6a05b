package sched

import "github.com/arloliu/morsel/types"

// Guided implements guided self-scheduling: every chunk covers
// ceil(remaining / workers) rows.
//
// The first chunk of a fresh session is the even per-worker share; chunk
// sizes then decay geometrically, so roughly workers * ln(total/minSize)
// chunks are issued. Guided is the usual default for irregular workloads
// whose skew is not extreme.
type Guided struct {
	workers uint64
	minSize uint64
}

var _ Policy = (*Guided)(nil)

// NewGuided creates a guided self-scheduling policy.
func NewGuided(workers int, minSize uint64) *Guided {
	return &Guided{workers: uint64(workers), minSize: minSize}
}

// Scheme returns types.SchemeGuided.
func (g *Guided) Scheme() types.Scheme {
	return types.SchemeGuided
}

// NextChunkSize returns ceil(remaining/workers) clamped to the session
// contract.
func (g *Guided) NextChunkSize(remaining uint64) uint64 {
	return clamp(ceilDiv(remaining, g.workers), g.minSize, remaining)
}
