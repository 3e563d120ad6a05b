package types

import "time"

// TraceKind identifies the scheduling event a TraceEvent describes.
type TraceKind uint8

const (
	// TraceEnqueue records a chunk placed on a queue by the producer.
	TraceEnqueue TraceKind = iota

	// TraceClaim records a worker claiming a chunk from its home queue.
	TraceClaim

	// TraceSteal records a worker stealing a chunk from a victim queue.
	TraceSteal

	// TraceDone records a worker finishing a chunk.
	TraceDone

	// TraceExhaust records a worker observing session exhaustion and exiting.
	TraceExhaust
)

// String returns the string representation of the trace kind.
func (k TraceKind) String() string {
	switch k {
	case TraceEnqueue:
		return "enqueue"
	case TraceClaim:
		return "claim"
	case TraceSteal:
		return "steal"
	case TraceDone:
		return "done"
	case TraceExhaust:
		return "exhaust"
	default:
		return "unknown"
	}
}

// TraceEvent is one scheduling decision captured in debug trace mode.
//
// Tracing is observational: sinks must not block, and the partitioner
// produces identical scheduling outcomes whether or not a sink is attached.
type TraceEvent struct {
	// Kind is the event type.
	Kind TraceKind

	// Seq is the chunk sequence number (unused for TraceExhaust).
	Seq uint64

	// Range is the chunk row range (unused for TraceExhaust).
	Range Range

	// Worker is the acting worker index, or -1 for producer events.
	Worker int

	// Queue is the home queue of the chunk, or the worker's home queue for
	// TraceExhaust.
	Queue int

	// Victim is the queue stolen from (TraceSteal only, otherwise -1).
	Victim int

	// At is the event timestamp.
	At time.Time
}

// TraceSink receives scheduling events when debug tracing is enabled.
//
// Record is called from producer and worker goroutines concurrently and
// must be thread-safe and non-blocking.
type TraceSink interface {
	Record(ev TraceEvent)
}
