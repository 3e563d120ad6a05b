package morsel

import "github.com/arloliu/morsel/types"

// Sentinel errors re-exported from the types package.
//
// The canonical definitions live in types/ so internal packages can return
// them without importing the root package; the aliases here keep
// errors.Is checks working against either name.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrParticipants is returned when a message-passing session is
	// configured with fewer than two participants.
	ErrParticipants = types.ErrParticipants

	// ErrNoWorkerAddresses is returned when a remote-call session has no
	// worker addresses configured.
	ErrNoWorkerAddresses = types.ErrNoWorkerAddresses

	// ErrNilProcessFunc is returned when Run is called without a process function.
	ErrNilProcessFunc = types.ErrNilProcessFunc

	// ErrEmptyWorkItem is returned when Run is called with an empty range.
	ErrEmptyWorkItem = types.ErrEmptyWorkItem

	// ErrAlreadyRunning is returned when Run is called while a session is in progress.
	ErrAlreadyRunning = types.ErrAlreadyRunning

	// ErrClosed is returned when operations are invoked on a closed partitioner.
	ErrClosed = types.ErrClosed

	// ErrSchedulingInvariant indicates a fatal internal scheduling bug.
	ErrSchedulingInvariant = types.ErrSchedulingInvariant

	// ErrLocalProcessing aggregates failures reported by chunk process functions.
	ErrLocalProcessing = types.ErrLocalProcessing

	// ErrNATSConnectionRequired is returned when the NATS connection is nil.
	ErrNATSConnectionRequired = types.ErrNATSConnectionRequired

	// ErrTaskHandlerRequired is returned when a worker is constructed
	// without a task handler.
	ErrTaskHandlerRequired = types.ErrTaskHandlerRequired

	// ErrBackendUnavailable is returned when the selected backend cannot be
	// reached at session start.
	ErrBackendUnavailable = types.ErrBackendUnavailable

	// ErrRemoteExecution is returned when a remote worker fails or becomes
	// unreachable mid-session. Fatal; there is no retry path.
	ErrRemoteExecution = types.ErrRemoteExecution

	// ErrTerminated is returned when dispatching on a transport that has
	// already sent its termination messages.
	ErrTerminated = types.ErrTerminated

	// ErrBufferOverRelease is returned when a buffer is released past zero.
	ErrBufferOverRelease = types.ErrBufferOverRelease

	// ErrAllocatorClosed is returned when allocating from a closed allocator.
	ErrAllocatorClosed = types.ErrAllocatorClosed
)
