// Package types provides core type definitions and interfaces for the Morsel library.
//
// This package contains shared types that are used across multiple packages in the
// Morsel library. By keeping these types in a separate package, we avoid import cycles
// between the main morsel package and its internal implementations.
//
// Key types:
//   - Range, WorkItem, Chunk: Units of schedulable work
//   - Scheme: Self-scheduling algorithm selector
//   - QueueLayout, VictimSelection: Work queue topology and steal policy
//   - Backend: Distributed dispatch transport selector
//   - Status: Process exit status taxonomy
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
//   - TraceSink: Scheduling event tracing interface
package types
