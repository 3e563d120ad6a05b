package distributed

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/arloliu/morsel/types"
)

// TerminateOpcode is the single-byte detach frame published once per worker
// after all expected results have been collected.
const TerminateOpcode byte = 0x00

// terminateFrame is the wire form of a termination message.
var terminateFrame = []byte{TerminateOpcode}

// IsTerminate reports whether a control frame is a termination message.
func IsTerminate(data []byte) bool {
	return len(data) == 1 && data[0] == TerminateOpcode
}

// Task is one remotely dispatched chunk.
//
// The coordinator serializes one Task per chunk of the top-level work item;
// Begin/End carry the chunk's row range and Payload the opaque session
// payload every task shares (serialized pipeline, plan fragment).
type Task struct {
	// TaskID correlates the task with its result across the transport.
	TaskID string `msgpack:"task_id"`

	// Seq is the chunk sequence number within the session.
	Seq uint64 `msgpack:"seq"`

	// Begin and End delimit the half-open row range [Begin, End).
	Begin uint64 `msgpack:"begin"`
	End   uint64 `msgpack:"end"`

	// Payload is the opaque task description interpreted by the worker's
	// TaskHandler.
	Payload []byte `msgpack:"payload,omitempty"`
}

// Range returns the task's row range.
func (t *Task) Range() types.Range {
	return types.Range{Begin: t.Begin, End: t.End}
}

// Result is the remote worker's reply to one Task.
//
// Exactly one of Output and Error is meaningful: a failed task carries the
// worker-side error text and no output.
type Result struct {
	// TaskID echoes the task this result answers.
	TaskID string `msgpack:"task_id"`

	// Seq echoes the task's chunk sequence number, letting the coordinator
	// order collected results without tracking task identity itself.
	Seq uint64 `msgpack:"seq"`

	// Output is the serialized result produced by the TaskHandler.
	Output []byte `msgpack:"output,omitempty"`

	// Error is the worker-side failure description, empty on success.
	Error string `msgpack:"error,omitempty"`
}

// EncodeTask serializes a task for transport.
func EncodeTask(t *Task) ([]byte, error) {
	data, err := msgpack.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task %s: %w", t.TaskID, err)
	}

	return data, nil
}

// DecodeTask deserializes a task received from the transport.
func DecodeTask(data []byte) (*Task, error) {
	var t Task
	if err := msgpack.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}

	return &t, nil
}

// EncodeResult serializes a result for transport.
func EncodeResult(r *Result) ([]byte, error) {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result %s: %w", r.TaskID, err)
	}

	return data, nil
}

// DecodeResult deserializes a result received from the transport.
func DecodeResult(data []byte) (*Result, error) {
	var r Result
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}

	return &r, nil
}
