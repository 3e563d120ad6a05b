package queue

import (
	rand "math/rand/v2"

	"github.com/arloliu/morsel/internal/hash"
	"github.com/arloliu/morsel/types"
)

// VictimSelector yields the queue indices an idle worker probes, in order,
// during one steal round.
//
// Sequence is called with the thief's own queue index and never includes it
// in the result. Implementations keep per-thief state; a given thief index
// must only be used from one goroutine at a time, which the worker loop
// guarantees.
type VictimSelector interface {
	Sequence(thief int) []int
}

// NewVictimSelector creates the selector for the given policy over a set of
// queues.
//
// Parameters:
//   - policy: Probe ordering policy
//   - groupOf: NUMA group id per queue index
//   - seed: Seed for the randomized policies (0 selects a fixed default)
//
// Returns:
//   - VictimSelector: Selector instance for the session
func NewVictimSelector(policy types.VictimSelection, groupOf []int, seed uint64) VictimSelector {
	n := len(groupOf)
	switch policy {
	case types.VictimSequentialNUMA:
		return newSequentialNUMA(groupOf)
	case types.VictimRandom:
		return newRandomSelector(n, nil, seed)
	case types.VictimRandomNUMA:
		return newRandomSelector(n, groupOf, seed)
	default:
		return newSequential(n)
	}
}

// sequential probes the other queues in ring order starting after the thief.
type sequential struct {
	rings [][]int
}

func newSequential(n int) *sequential {
	rings := make([][]int, n)
	for thief := range n {
		ring := make([]int, 0, n-1)
		for step := 1; step < n; step++ {
			ring = append(ring, (thief+step)%n)
		}
		rings[thief] = ring
	}

	return &sequential{rings: rings}
}

func (s *sequential) Sequence(thief int) []int {
	if thief < 0 || thief >= len(s.rings) {
		return nil
	}

	return s.rings[thief]
}

// sequentialNUMA probes same-group queues in ring order first, then the
// remaining queues in ring order.
type sequentialNUMA struct {
	rings [][]int
}

func newSequentialNUMA(groupOf []int) *sequentialNUMA {
	n := len(groupOf)
	rings := make([][]int, n)
	for thief := range n {
		ring := make([]int, 0, n-1)
		for step := 1; step < n; step++ {
			v := (thief + step) % n
			if groupOf[v] == groupOf[thief] {
				ring = append(ring, v)
			}
		}
		for step := 1; step < n; step++ {
			v := (thief + step) % n
			if groupOf[v] != groupOf[thief] {
				ring = append(ring, v)
			}
		}
		rings[thief] = ring
	}

	return &sequentialNUMA{rings: rings}
}

func (s *sequentialNUMA) Sequence(thief int) []int {
	if thief < 0 || thief >= len(s.rings) {
		return nil
	}

	return s.rings[thief]
}

// randomSelector probes randomly chosen queues. With group information it
// shuffles same-group victims ahead of remote ones; without it the whole
// victim set is shuffled.
type randomSelector struct {
	near [][]int // same-group victims per thief (all victims when no groups)
	far  [][]int // remote-group victims per thief
	rngs []*rand.Rand
	bufs [][]int
}

func newRandomSelector(n int, groupOf []int, seed uint64) *randomSelector {
	if seed == 0 {
		seed = 0x6d6f7273656c // stable default stream
	}

	s := &randomSelector{
		near: make([][]int, n),
		far:  make([][]int, n),
		rngs: make([]*rand.Rand, n),
		bufs: make([][]int, n),
	}
	for thief := range n {
		for v := range n {
			if v == thief {
				continue
			}
			if groupOf == nil || groupOf[v] == groupOf[thief] {
				s.near[thief] = append(s.near[thief], v)
			} else {
				s.far[thief] = append(s.far[thief], v)
			}
		}
		s.rngs[thief] = hash.Stream(seed, uint64(thief))
		s.bufs[thief] = make([]int, 0, n-1)
	}

	return s
}

func (s *randomSelector) Sequence(thief int) []int {
	if thief < 0 || thief >= len(s.rngs) {
		return nil
	}
	rng := s.rngs[thief]

	seq := s.bufs[thief][:0]
	seq = append(seq, s.near[thief]...)
	rng.Shuffle(len(seq), func(i, j int) {
		seq[i], seq[j] = seq[j], seq[i]
	})

	if len(s.far[thief]) > 0 {
		start := len(seq)
		seq = append(seq, s.far[thief]...)
		remote := seq[start:]
		rng.Shuffle(len(remote), func(i, j int) {
			remote[i], remote[j] = remote[j], remote[i]
		})
	}
	s.bufs[thief] = seq

	return seq
}
