// Package metrics provides MetricsCollector implementations for the Morsel
// library.
package metrics

import "github.com/arloliu/morsel/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	collector := metrics.NewNop()
//	part, err := morsel.NewPartitioner(&cfg, morsel.WithMetrics(collector))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// SchedulerMetrics implementation

// RecordSessionStart discards the session start metric.
func (n *NopMetrics) RecordSessionStart(_ /* scheme */ string, _ /* workers */ int, _ /* rows */ uint64) {
	// No-op
}

// RecordSessionDuration discards the session duration metric.
func (n *NopMetrics) RecordSessionDuration(_ /* scheme */ string, _ /* seconds */ float64, _ /* success */ bool) {
	// No-op
}

// RecordChunkIssued discards the chunk issuance metric.
func (n *NopMetrics) RecordChunkIssued(_ /* scheme */ string, _ /* size */ uint64) {
	// No-op
}

// RecordChunkProcessed discards the chunk processing metric.
func (n *NopMetrics) RecordChunkProcessed(_ /* worker */ int, _ /* size */ uint64, _ /* seconds */ float64) {
	// No-op
}

// StealMetrics implementation

// RecordSteal discards the steal metric.
func (n *NopMetrics) RecordSteal(_ /* thief */, _ /* victim */ int) {
	// No-op
}

// RecordFailedProbe discards the failed probe metric.
func (n *NopMetrics) RecordFailedProbe(_ /* thief */ int) {
	// No-op
}

// DispatchMetrics implementation

// RecordDispatch discards the dispatch metric.
func (n *NopMetrics) RecordDispatch(_ /* worker */ string, _ /* seconds */ float64, _ /* success */ bool) {
	// No-op
}

// RecordTermination discards the termination fan-out metric.
func (n *NopMetrics) RecordTermination(_ /* workers */ int) {
	// No-op
}

// BufferMetrics implementation

// RecordBufferAllocated discards the buffer allocation metric.
func (n *NopMetrics) RecordBufferAllocated(_ /* bytes */ int) {
	// No-op
}

// RecordBufferFreed discards the buffer free metric.
func (n *NopMetrics) RecordBufferFreed(_ /* bytes */ int) {
	// No-op
}

// RecordBufferOverRelease discards the over-release metric.
func (n *NopMetrics) RecordBufferOverRelease() {
	// No-op
}
