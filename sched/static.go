package sched

import "github.com/arloliu/morsel/types"

// Static issues exactly one chunk per worker, splitting the work item as
// evenly as possible up front.
//
// Algorithm:
//  1. base = floor(total / workers), rem = total mod workers
//  2. The first rem chunks get base+1 rows, the rest get base rows
//  3. Workers beyond the row count receive no chunk
//
// Static has the lowest scheduling overhead of all schemes and no ability
// to absorb cost skew: a single expensive region serializes the session on
// one worker. SplitEven exposes the same remainder rule for pre-partitioned
// queue layouts.
type Static struct {
	sizes   []uint64
	next    int
	minSize uint64
}

var _ Policy = (*Static)(nil)

// NewStatic creates a static policy for a session of total rows across the
// given worker count.
func NewStatic(total uint64, workers int, minSize uint64) *Static {
	if minSize == 0 {
		minSize = 1
	}

	return &Static{sizes: SplitEven(total, workers), minSize: minSize}
}

// SplitEven splits total rows into at most n near-equal parts using the
// static remainder rule: the first total mod n parts receive one extra row.
// Zero-size parts are omitted, so fewer than n parts are returned when
// total < n.
//
// Parameters:
//   - total: Row count to split
//   - n: Desired part count
//
// Returns:
//   - []uint64: Part sizes, largest first, summing exactly to total
func SplitEven(total uint64, n int) []uint64 {
	if n < 1 || total == 0 {
		return nil
	}
	base := total / uint64(n)
	rem := total % uint64(n)

	sizes := make([]uint64, 0, n)
	for i := range n {
		size := base
		if uint64(i) < rem {
			size++
		}
		if size == 0 {
			break
		}
		sizes = append(sizes, size)
	}

	return sizes
}

// Scheme returns types.SchemeStatic.
func (s *Static) Scheme() types.Scheme {
	return types.SchemeStatic
}

// NextChunkSize returns the next precomputed share.
func (s *Static) NextChunkSize(remaining uint64) uint64 {
	if remaining == 0 {
		return 0
	}
	if s.next >= len(s.sizes) {
		// Precomputed shares exhausted; only possible when the session was
		// created for a smaller total. Drain whatever is left.
		return remaining
	}
	size := s.sizes[s.next]
	s.next++

	return clamp(size, s.minSize, remaining)
}

// ModifiedStatic issues fixed chunks of ceil(total / (4 * workers)) rows,
// producing roughly four chunks per worker.
//
// The extra granularity over Static lets the queue absorb moderate cost
// skew through claiming order while keeping scheduling overhead near-static.
type ModifiedStatic struct {
	fixed
}

// NewModifiedStatic creates a modified static policy.
func NewModifiedStatic(total uint64, workers int, minSize uint64) *ModifiedStatic {
	return &ModifiedStatic{fixed: fixed{
		scheme:  types.SchemeModifiedStatic,
		size:    ceilDiv(total, uint64(workers)*4),
		minSize: minSize,
	}}
}
