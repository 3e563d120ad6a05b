// Package sched provides built-in self-scheduling policy implementations.
//
// A policy computes the size of each chunk issued during one scheduling
// session. The package includes the twelve published schemes selectable
// through types.Scheme:
//
//   - Static, ModifiedStatic: all chunk sizes decided up front
//   - Self, ModifiedFixedSize: fixed chunk sizes
//   - Guided, Probabilistic: chunks proportional to remaining work
//   - Trapezoid, FixedStep, VariableStep: explicitly decreasing chunk series
//   - Factoring, TrapezoidFactoring: batched decreasing chunks
//   - PerformanceLoop: static fraction first, runtime feedback afterwards
//
// # Scheme Selection Guide
//
// Static / ModifiedStatic:
//   - Use for uniform row costs where scheduling overhead dominates
//   - Static issues one chunk per worker, ModifiedStatic four per worker
//
// Self:
//   - Use for extremely irregular row costs
//   - Issues minimum-size chunks; highest scheduling overhead, best balance
//
// Guided / Factoring / Trapezoid and variants:
//   - Use for moderately irregular costs
//   - Large chunks early amortize overhead, small chunks late absorb skew
//
// PerformanceLoop:
//   - Use when worker throughput varies at runtime (frequency scaling,
//     co-tenancy); requires execution feedback via FeedbackPolicy
//
// Probabilistic:
//   - Use to decorrelate contention when many workers drain one queue
//
// Policies are stateful per session and not safe for concurrent use; the
// issuing queue serializes all NextChunkSize calls.
package sched
