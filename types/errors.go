package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the Morsel library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).
//
// Error Naming Convention:
//   - Use descriptive names with Err prefix
//   - Group by component (Configuration, Partitioner, Distributed, Buffer)
//   - Configuration sentinels wrap ErrInvalidConfig so callers can classify
//     them with a single errors.Is check

// Configuration errors - returned while validating or parsing configuration,
// before any work is dispatched.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownScheme is returned when a scheduling scheme token cannot be parsed.
	ErrUnknownScheme = fmt.Errorf("%w: unknown scheduling scheme", ErrInvalidConfig)

	// ErrUnknownQueueLayout is returned when a queue layout token cannot be parsed.
	ErrUnknownQueueLayout = fmt.Errorf("%w: unknown queue layout", ErrInvalidConfig)

	// ErrUnknownVictimSelection is returned when a victim selection token cannot be parsed.
	ErrUnknownVictimSelection = fmt.Errorf("%w: unknown victim selection", ErrInvalidConfig)

	// ErrUnknownBackend is returned when a distributed backend token cannot be parsed.
	ErrUnknownBackend = fmt.Errorf("%w: unknown distributed backend", ErrInvalidConfig)

	// ErrParticipants is returned when a message-passing session is configured
	// with fewer than two participants (one coordinator plus at least one worker).
	ErrParticipants = fmt.Errorf("%w: message passing requires at least 2 participants", ErrInvalidConfig)

	// ErrNoWorkerAddresses is returned when a remote-call session is configured
	// without any worker addresses.
	ErrNoWorkerAddresses = fmt.Errorf("%w: remote call requires at least one worker address", ErrInvalidConfig)
)

// Partitioner errors - Public API errors returned by the Partitioner.
var (
	// ErrNilProcessFunc is returned when Run is called without a process function.
	ErrNilProcessFunc = errors.New("process function is required")

	// ErrEmptyWorkItem is returned when Run is called with an empty range.
	ErrEmptyWorkItem = errors.New("work item covers no rows")

	// ErrAlreadyRunning is returned when Run is called while a session is in progress.
	ErrAlreadyRunning = errors.New("session already running")

	// ErrClosed is returned when operations are invoked on a closed partitioner.
	ErrClosed = errors.New("partitioner closed")

	// ErrSchedulingInvariant indicates a fatal internal scheduling bug, such as
	// a chunk observed twice or rows left unclaimed at session end.
	ErrSchedulingInvariant = errors.New("scheduling invariant violation")

	// ErrLocalProcessing aggregates failures reported by chunk process functions.
	ErrLocalProcessing = errors.New("local processing failed")
)

// Distributed errors - returned by the coordinator, transports and workers.
var (
	// ErrNATSConnectionRequired is returned when the NATS connection is nil.
	ErrNATSConnectionRequired = errors.New("NATS connection is required")

	// ErrTaskHandlerRequired is returned when a worker is constructed without
	// a task handler.
	ErrTaskHandlerRequired = errors.New("task handler is required")

	// ErrBackendUnavailable is returned when the selected backend cannot be
	// reached at session start.
	ErrBackendUnavailable = errors.New("distributed backend unavailable")

	// ErrRemoteExecution is returned when a remote worker fails or becomes
	// unreachable mid-session. Remote failures are fatal to the session;
	// there is no retry path.
	ErrRemoteExecution = errors.New("remote execution failed")

	// ErrTerminated is returned when dispatching on a transport that has
	// already sent its termination messages.
	ErrTerminated = errors.New("transport terminated")
)

// Buffer errors - returned by the reference-counted buffer allocator.
var (
	// ErrBufferOverRelease is returned when Release is called on a buffer
	// whose reference count already reached zero.
	ErrBufferOverRelease = errors.New("buffer released more times than retained")

	// ErrAllocatorClosed is returned when allocating from a closed allocator.
	ErrAllocatorClosed = errors.New("allocator closed")
)

// Host engine errors - reserved sentinels the embedding engine wraps its own
// failures with so StatusFromError can classify them.
var (
	// ErrCompilationPass is wrapped around optimizer or lowering pass failures.
	ErrCompilationPass = errors.New("compilation pass failed")
)

// Common errors - Shared errors used across multiple components.
var (
	// ErrContextCanceled is returned when an operation is canceled by context.
	ErrContextCanceled = errors.New("operation canceled by context")
)
