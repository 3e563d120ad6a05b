package types

// State represents the partitioner lifecycle state.
//
// A partitioner starts idle, enters the running state for the duration of
// each session, and returns to idle when the session's work item is fully
// processed:
//
//	StateIdle → StateRunning → StateIdle
//
// Closed is terminal; a closed partitioner rejects new sessions.
type State int

const (
	// StateIdle indicates no session is in progress.
	StateIdle State = iota

	// StateRunning indicates a session is partitioning and processing work.
	StateRunning

	// StateClosed indicates the partitioner has been closed.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// NodeState represents the lifecycle state of a remote worker node.
//
// Workers cycle between idle and busy while serving tasks:
//
//	NodeIdle ⇄ NodeBusy
//
// Terminated is terminal and entered only after a termination message has
// been received and all in-flight tasks have completed.
type NodeState int

const (
	// NodeIdle indicates the worker is waiting for tasks.
	NodeIdle NodeState = iota

	// NodeBusy indicates the worker is executing at least one task.
	NodeBusy

	// NodeTerminated indicates the worker has detached and will accept no
	// further tasks.
	NodeTerminated
)

// String returns the string representation of the node state.
func (s NodeState) String() string {
	switch s {
	case NodeIdle:
		return "Idle"
	case NodeBusy:
		return "Busy"
	case NodeTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}
