package distributed

import (
	"github.com/arloliu/morsel/buffer"
	"github.com/arloliu/morsel/types"
)

// Option configures a Coordinator or Worker with optional dependencies.
type Option func(*options)

// options holds optional coordinator and worker configuration.
type options struct {
	logger    types.Logger
	metrics   types.MetricsCollector
	transport Transport
	allocator *buffer.Allocator
	poolSize  int
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewCoordinator and NewWorker
func WithLogger(logger types.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewCoordinator and NewWorker
func WithMetrics(metrics types.MetricsCollector) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithTransport injects a pre-built transport, bypassing the backend
// selection in the configuration. The coordinator takes ownership and
// closes it on Close.
//
// Parameters:
//   - transport: Transport implementation
//
// Returns:
//   - Option: Functional option for NewCoordinator
func WithTransport(transport Transport) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithAllocator sets the buffer allocator a worker stages task payloads
// through. The caller retains ownership; the worker does not close it.
//
// Parameters:
//   - alloc: Buffer allocator
//
// Returns:
//   - Option: Functional option for NewWorker
func WithAllocator(alloc *buffer.Allocator) Option {
	return func(o *options) {
		o.allocator = alloc
	}
}

// WithPoolSize overrides the size of a worker's task execution pool.
//
// By default the pool size follows Config.NumberOfThreads, falling back to
// the discovered CPU topology when unset.
//
// Parameters:
//   - size: Number of concurrent task executions (size > 0)
//
// Returns:
//   - Option: Functional option for NewWorker
func WithPoolSize(size int) Option {
	return func(o *options) {
		o.poolSize = size
	}
}
