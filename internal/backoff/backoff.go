// Package backoff provides jittered exponential backoff for retry loops.
package backoff

import (
	rand "math/rand/v2"
	"time"

	"github.com/arloliu/morsel/internal/hash"
)

// Jitter produces full-jitter exponential backoff delays with a cap.
// See: https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
//
// Given the previous delay (prev), the next delay is:
//
//	next = base + rand(0, prev*mult - base), capped at Cap
//
// A Jitter is not safe for concurrent use; callers keep one per goroutine.
type Jitter struct {
	base time.Duration
	cap  time.Duration
	mult float64
	prev time.Duration
	rng  *rand.Rand
}

// New creates a backoff sequence starting at base and capped at capDur.
// A non-zero seed makes the sequence deterministic; seed 0 uses the shared
// package-level PRNG.
func New(base, capDur time.Duration, seed uint64) *Jitter {
	if base <= 0 {
		base = 50 * time.Microsecond
	}
	if capDur > 0 && capDur < base {
		capDur = base
	}

	return &Jitter{base: base, cap: capDur, mult: 2.0, rng: newRNG(seed)}
}

// Next returns the next delay in the sequence and advances it.
func (j *Jitter) Next() time.Duration {
	if j.prev <= 0 {
		j.prev = j.base
		return j.base
	}

	spread := time.Duration(float64(j.prev)*j.mult) - j.base
	if spread <= 0 {
		spread = j.base
	}

	var jitter int64
	if j.rng != nil {
		jitter = j.rng.Int64N(int64(spread))
	} else {
		jitter = rand.Int64N(int64(spread)) //nolint:gosec // non-crypto backoff jitter
	}

	next := j.base + time.Duration(jitter)
	if j.cap > 0 && next > j.cap {
		next = j.cap
	}
	j.prev = next

	return next
}

// Reset restarts the sequence from the base delay.
func (j *Jitter) Reset() {
	j.prev = 0
}

// newRNG returns a deterministic RNG only when a non-zero seed is provided.
// When seed == 0 it returns nil and Next uses the package-level PRNG instead.
func newRNG(seed uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}

	return hash.Stream(seed, 0)
}
