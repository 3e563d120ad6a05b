package morsel

// Option configures a Partitioner with optional dependencies.
type Option func(*partitionerOptions)

// partitionerOptions holds optional Partitioner configuration.
type partitionerOptions struct {
	logger       Logger
	metrics      MetricsCollector
	hooks        *Hooks
	traceSink    TraceSink
	workerGroups []int
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewPartitioner
//
// Example:
//
//	logger := zap.NewExample().Sugar()
//	lp, err := morsel.NewPartitioner(&cfg, morsel.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *partitionerOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewPartitioner
//
// Example:
//
//	metrics := myPrometheusCollector
//	lp, err := morsel.NewPartitioner(&cfg, morsel.WithMetrics(metrics))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *partitionerOptions) {
		o.metrics = metrics
	}
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewPartitioner
//
// Example:
//
//	hooks := &morsel.Hooks{
//	    OnSessionDone: func(ctx context.Context, stats morsel.SessionStats) error {
//	        return publishStats(stats)
//	    },
//	}
//	lp, err := morsel.NewPartitioner(&cfg, morsel.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *partitionerOptions) {
		o.hooks = hooks
	}
}

// WithTraceSink sets the sink that receives scheduling trace events when
// Config.DebugTrace is enabled.
//
// Parameters:
//   - sink: TraceSink implementation
//
// Returns:
//   - Option: Functional option for NewPartitioner
//
// Example:
//
//	ring := morsel.NewTraceRing(4096)
//	lp, err := morsel.NewPartitioner(&cfg, morsel.WithTraceSink(ring))
func WithTraceSink(sink TraceSink) Option {
	return func(o *partitionerOptions) {
		o.traceSink = sink
	}
}

// WithWorkerGroups overrides the NUMA group of each worker.
//
// By default worker groups are derived from the discovered CPU topology.
// Overriding them makes PERGROUP layouts and NUMA-aware victim selectors
// deterministic on machines whose topology the test cannot control.
//
// Parameters:
//   - groups: Group id per worker index; len(groups) must equal the
//     session worker count
//
// Returns:
//   - Option: Functional option for NewPartitioner
func WithWorkerGroups(groups []int) Option {
	return func(o *partitionerOptions) {
		o.workerGroups = groups
	}
}
