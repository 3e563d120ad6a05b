package morsel

import (
	"sync"

	"github.com/arloliu/morsel/types"
)

// TraceRing is a bounded in-memory TraceSink.
//
// The ring keeps the most recent events, overwriting the oldest once full,
// so debug tracing can stay enabled for long sessions without unbounded
// growth. Record never blocks and is safe for concurrent use.
type TraceRing struct {
	mu     sync.Mutex
	events []types.TraceEvent
	next   int
	filled bool
	total  uint64
}

// Compile-time assertion that TraceRing implements TraceSink.
var _ types.TraceSink = (*TraceRing)(nil)

// NewTraceRing creates a trace ring holding up to capacity events.
//
// Parameters:
//   - capacity: Maximum retained events (values < 1 are raised to 1)
//
// Returns:
//   - *TraceRing: Empty ring ready to record
func NewTraceRing(capacity int) *TraceRing {
	if capacity < 1 {
		capacity = 1
	}

	return &TraceRing{events: make([]types.TraceEvent, capacity)}
}

// Record stores one event, overwriting the oldest when the ring is full.
func (r *TraceRing) Record(ev types.TraceEvent) {
	r.mu.Lock()
	r.events[r.next] = ev
	r.next++
	if r.next == len(r.events) {
		r.next = 0
		r.filled = true
	}
	r.total++
	r.mu.Unlock()
}

// Events returns the retained events in recording order, oldest first.
func (r *TraceRing) Events() []types.TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.filled {
		out := make([]types.TraceEvent, r.next)
		copy(out, r.events[:r.next])

		return out
	}

	out := make([]types.TraceEvent, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	out = append(out, r.events[:r.next]...)

	return out
}

// Total returns the number of events recorded, including overwritten ones.
func (r *TraceRing) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.total
}

// Reset clears the ring for reuse across sessions.
func (r *TraceRing) Reset() {
	r.mu.Lock()
	r.next = 0
	r.filled = false
	r.total = 0
	r.mu.Unlock()
}
