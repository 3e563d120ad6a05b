package sched

import (
	"math"
	rand "math/rand/v2"
	"time"

	"github.com/arloliu/morsel/internal/hash"
	"github.com/arloliu/morsel/types"
)

// Probabilistic implements probabilistic self-scheduling: every chunk is
// the guided size ceil(remaining/workers) scaled by a uniform random factor
// in [0.5, 1.5).
//
// The jitter decorrelates chunk boundaries across sessions and workers, so
// repeated runs over the same data do not hit queue locks and cache lines
// in lockstep. The RNG stream is a PCG seeded through xxh3, making a session
// reproducible when a seed is supplied.
type Probabilistic struct {
	workers uint64
	minSize uint64
	rng     *rand.Rand
}

var _ Policy = (*Probabilistic)(nil)

// NewProbabilistic creates a probabilistic self-scheduling policy. A zero
// seed selects a time-derived seed.
func NewProbabilistic(workers int, minSize uint64, seed uint64) *Probabilistic {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // non-crypto scheduling jitter
	}

	return &Probabilistic{
		workers: uint64(workers),
		minSize: minSize,
		rng:     hash.Stream(seed, 0),
	}
}

// Scheme returns types.SchemeProbabilistic.
func (p *Probabilistic) Scheme() types.Scheme {
	return types.SchemeProbabilistic
}

// NextChunkSize returns the jittered guided size.
func (p *Probabilistic) NextChunkSize(remaining uint64) uint64 {
	if remaining == 0 {
		return 0
	}
	guided := ceilDiv(remaining, p.workers)
	factor := 0.5 + p.rng.Float64()
	size := uint64(math.Round(float64(guided) * factor))

	return clamp(size, p.minSize, remaining)
}
