package types

import "fmt"

// Range is a half-open interval [Begin, End) of row indices.
//
// A Range is the addressing unit of all scheduling decisions: work items
// describe the full range of a data-parallel operation, and chunks describe
// the contiguous sub-ranges handed to individual workers.
type Range struct {
	// Begin is the first row index covered by the range (inclusive).
	Begin uint64 `json:"begin"`

	// End is the first row index past the range (exclusive).
	End uint64 `json:"end"`
}

// Len returns the number of rows covered by the range.
//
// Returns:
//   - uint64: End - Begin, or 0 for an inverted range
func (r Range) Len() uint64 {
	if r.End <= r.Begin {
		return 0
	}

	return r.End - r.Begin
}

// IsEmpty reports whether the range covers no rows.
func (r Range) IsEmpty() bool {
	return r.End <= r.Begin
}

// SplitAt splits the range into [Begin, at) and [at, End).
//
// The split point is clamped into the range, so SplitAt never produces
// sub-ranges outside the receiver.
//
// Parameters:
//   - at: Absolute row index to split at
//
// Returns:
//   - Range: Left half [Begin, min(at, End))
//   - Range: Right half [max(at, Begin), End)
func (r Range) SplitAt(at uint64) (Range, Range) {
	if at < r.Begin {
		at = r.Begin
	}
	if at > r.End {
		at = r.End
	}

	return Range{Begin: r.Begin, End: at}, Range{Begin: at, End: r.End}
}

// String returns the range in half-open interval notation, e.g. "[0,1024)".
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Begin, r.End)
}

// WorkItem is one data-parallel operation submitted to the partitioner.
//
// The surrounding engine produces one WorkItem per pipeline invocation; the
// partitioner splits its range into chunks according to the configured
// scheduling scheme.
type WorkItem struct {
	// Range is the full row range of the operation.
	Range Range `json:"range"`

	// CostHint is an optional compiler-estimated relative processing cost
	// for the item (0 means unknown). Cost-aware schemes may consult it to
	// bias their granularity; cost-oblivious schemes ignore it.
	CostHint float64 `json:"costHint,omitempty"`
}

// Chunk is a contiguous sub-range of a WorkItem issued by a scheduling
// scheme.
//
// Every row of a work item belongs to exactly one chunk, and every chunk is
// consumed exactly once: either claimed by the worker owning its queue or
// stolen by another worker. Chunks carry their issue sequence number and
// home queue so traces and metrics can reconstruct scheduling decisions.
type Chunk struct {
	// Range is the rows covered by this chunk.
	Range Range `json:"range"`

	// Seq is the session-wide issue sequence number, starting at 0.
	Seq uint64 `json:"seq"`

	// Queue is the index of the queue the chunk was enqueued on.
	Queue int `json:"queue"`
}

// Len returns the number of rows covered by the chunk.
func (c Chunk) Len() uint64 {
	return c.Range.Len()
}
