package types

import (
	"context"
	"time"
)

// SessionStats summarizes one completed scheduling session.
type SessionStats struct {
	// Scheme is the self-scheduling scheme the session ran with.
	Scheme Scheme

	// Workers is the number of workers that participated.
	Workers int

	// Rows is the total number of rows the session covered.
	Rows uint64

	// Chunks is the number of chunks the scheme issued.
	Chunks uint64

	// Claims is the number of chunks workers claimed from their home queues.
	Claims uint64

	// Steals is the number of chunks obtained from a victim queue.
	Steals uint64

	// FailedProbes is the number of steal probes that found an empty victim.
	FailedProbes uint64

	// Duration is the session wall-clock time.
	Duration time.Duration
}

// Hooks defines callbacks for partitioner lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines
// to avoid blocking the scheduling loop. Hooks receive the session context,
// which is cancelled when the session ends or fails.
//
// IMPORTANT: Hook execution behavior:
//   - Hooks run concurrently and may not complete before Run() returns
//   - Hook errors are logged but never fail the session
//
// Best practices for hook implementation:
//   - Complete quickly (< 1 second recommended)
//   - Respect context cancellation
//   - Don't block on long I/O operations
//   - Make hooks idempotent (may be called multiple times)
type Hooks struct {
	// OnSessionStart is called when a scheduling session begins.
	OnSessionStart func(ctx context.Context, scheme Scheme, workers int, rows uint64) error

	// OnSessionDone is called when a session completes, successfully or not.
	OnSessionDone func(ctx context.Context, stats SessionStats) error

	// OnStateChanged is called when the partitioner lifecycle state transitions.
	OnStateChanged func(ctx context.Context, from, to State) error

	// OnError is called when a recoverable error occurs.
	OnError func(ctx context.Context, err error) error
}
