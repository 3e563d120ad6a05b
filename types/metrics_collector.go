package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from worker goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	SchedulerMetrics
	StealMetrics
	DispatchMetrics
	BufferMetrics
}

// SchedulerMetrics defines metrics for local scheduling sessions.
type SchedulerMetrics interface {
	// RecordSessionStart records the start of a scheduling session.
	//
	// Parameters:
	//   - scheme: Scheduling scheme token (e.g. "GSS")
	//   - workers: Number of workers in the session
	//   - rows: Total rows of the work item
	RecordSessionStart(scheme string, workers int, rows uint64)

	// RecordSessionDuration records the wall-clock duration of a completed session.
	//
	// Parameters:
	//   - scheme: Scheduling scheme token
	//   - seconds: Session duration in seconds
	//   - success: true if the session completed without error
	RecordSessionDuration(scheme string, seconds float64, success bool)

	// RecordChunkIssued records one chunk issued by the scheduling scheme.
	//
	// Parameters:
	//   - scheme: Scheduling scheme token
	//   - size: Chunk size in rows
	RecordChunkIssued(scheme string, size uint64)

	// RecordChunkProcessed records the execution of one chunk by a worker.
	//
	// Parameters:
	//   - worker: Worker index within the session
	//   - size: Chunk size in rows
	//   - seconds: Processing time in seconds
	RecordChunkProcessed(worker int, size uint64, seconds float64)
}

// StealMetrics defines metrics for work-stealing activity.
type StealMetrics interface {
	// RecordSteal records a successful steal.
	//
	// Parameters:
	//   - thief: Queue index of the stealing worker
	//   - victim: Queue index the chunk was stolen from
	RecordSteal(thief, victim int)

	// RecordFailedProbe records a steal probe that found the victim empty.
	RecordFailedProbe(thief int)
}

// DispatchMetrics defines metrics for distributed dispatch operations.
type DispatchMetrics interface {
	// RecordDispatch records one remote task dispatch.
	//
	// Parameters:
	//   - worker: Remote worker identity (rank subject or address)
	//   - seconds: Round-trip time in seconds
	//   - success: true if the worker returned a result
	RecordDispatch(worker string, seconds float64, success bool)

	// RecordTermination records the fan-out of termination messages at the
	// end of a distributed session.
	//
	// Parameters:
	//   - workers: Number of termination messages sent
	RecordTermination(workers int)
}

// BufferMetrics defines metrics for reference-counted buffer usage.
type BufferMetrics interface {
	// RecordBufferAllocated records a buffer allocation.
	RecordBufferAllocated(bytes int)

	// RecordBufferFreed records a buffer whose reference count reached zero.
	RecordBufferFreed(bytes int)

	// RecordBufferOverRelease records a detected release past zero.
	RecordBufferOverRelease()
}
