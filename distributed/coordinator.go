package distributed

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nuid"

	"github.com/arloliu/morsel"
	"github.com/arloliu/morsel/internal/logging"
	"github.com/arloliu/morsel/internal/metrics"
	"github.com/arloliu/morsel/types"
)

// Coordinator drives one distributed session over a set of remote workers.
//
// The coordinator reuses the local Partitioner: each remote worker is a
// virtual local worker claiming chunks from one shared queue, and
// "processing a chunk" means serializing a task, dispatching it through the
// transport and awaiting the remote result. The configured scheduling
// scheme therefore sizes remote tasks exactly the way it sizes local
// chunks, including adaptive feedback from observed round-trip times.
//
// A coordinator runs one session. After the session's results are
// collected it sends exactly one termination message per worker and closes
// the transport; subsequent Run calls fail with ErrClosed.
type Coordinator struct {
	dist      morsel.DistributedConfig
	transport Transport
	lp        *morsel.Partitioner
	workers   []string

	logger  types.Logger
	metrics types.MetricsCollector

	mu   sync.Mutex
	done bool
}

// NewCoordinator creates a coordinator for the configured backend.
//
// The configuration is defaulted and validated before any broker
// interaction, including backend-shape rules such as the two-participant
// minimum for message passing, so a session that cannot satisfy its
// backend never dispatches a task.
//
// Parameters:
//   - cfg: Configuration; Scheme sizes remote tasks, Distributed selects
//     the backend
//   - nc: Established NATS connection, owned by the caller; may be nil
//     when WithTransport supplies the transport
//   - opts: Optional dependencies (logger, metrics, transport)
//
// Returns:
//   - *Coordinator: Ready coordinator; call Run to execute a session
//   - error: ErrInvalidConfig (including ErrParticipants and
//     ErrNoWorkerAddresses), ErrNATSConnectionRequired, or
//     ErrBackendUnavailable when the transport cannot subscribe
//
// Example:
//
//	cfg := morsel.DefaultConfig()
//	cfg.Scheme = types.SchemeGuided
//	cfg.Distributed.Backend = types.BackendMessagePassing
//	cfg.Distributed.Participants = 4
//
//	coord, err := distributed.NewCoordinator(&cfg, nc)
//	if err != nil {
//	    return err
//	}
//	defer coord.Close()
//
//	results, err := coord.Run(ctx, item, payload)
func NewCoordinator(cfg *morsel.Config, nc *nats.Conn, opts ...Option) (*Coordinator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", types.ErrInvalidConfig)
	}
	morsel.SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Distributed.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := &options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = logging.NewNop()
	}
	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}

	transport := options.transport
	if transport == nil {
		if nc == nil {
			return nil, types.ErrNATSConnectionRequired
		}
		t, err := newTransport(nc, &cfg.Distributed, options.logger)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	workers := transport.Workers()
	if len(workers) == 0 {
		_ = transport.Close()
		return nil, fmt.Errorf("%w: transport exposes no workers", types.ErrInvalidConfig)
	}

	// One virtual local worker per remote worker, all claiming from one
	// shared queue. Pinning and pre-partitioning are local-execution
	// concerns; dispatch goroutines spend their time blocked on the wire.
	inner := *cfg
	inner.NumberOfThreads = len(workers)
	inner.QueueLayout = types.LayoutCentralized
	inner.PinWorkers = false
	inner.PrePartitionRows = false

	lp, err := morsel.NewPartitioner(&inner,
		morsel.WithLogger(options.logger),
		morsel.WithMetrics(options.metrics),
	)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	return &Coordinator{
		dist:      cfg.Distributed,
		transport: transport,
		lp:        lp,
		workers:   workers,
		logger:    options.logger,
		metrics:   options.metrics,
	}, nil
}

// Workers returns the identities of the session's remote workers.
func (c *Coordinator) Workers() []string {
	return c.workers
}

// Stats returns the statistics of the coordinator's scheduling session.
//
// For a distributed session, chunk counts are dispatched task counts and
// per-chunk durations are round-trip times.
func (c *Coordinator) Stats() morsel.SessionStats {
	return c.lp.Stats()
}

// Run partitions the work item and dispatches every chunk as a remote task.
//
// Each issued chunk becomes one Task carrying the chunk's row range, a
// unique task id and the shared session payload. Dispatches run
// concurrently, one virtual worker per remote worker, each bounded by
// Distributed.DispatchTimeout. Any dispatch failure or worker-reported
// error is fatal to the session.
//
// After all results are collected, Run sends exactly one termination
// message per worker, closes the transport and retires the coordinator.
//
// Parameters:
//   - ctx: Session context; cancellation aborts outstanding dispatches
//   - item: Top-level work item to partition
//   - payload: Opaque task description shared by every task (serialized
//     pipeline, plan fragment); may be nil
//
// Returns:
//   - []*Result: Worker results ordered by task sequence number
//   - error: ErrLocalProcessing wrapping dispatch failures
//     (ErrRemoteExecution, ErrBackendUnavailable, ErrTerminated), ErrClosed
//     after a completed session, nil on success
func (c *Coordinator) Run(ctx context.Context, item morsel.WorkItem, payload []byte) ([]*Result, error) {
	var (
		resMu   sync.Mutex
		results []*Result
	)

	fn := func(ctx context.Context, worker int, chunk morsel.Chunk) error {
		task := &Task{
			TaskID:  nuid.Next(),
			Seq:     chunk.Seq,
			Begin:   chunk.Range.Begin,
			End:     chunk.Range.End,
			Payload: payload,
		}

		dctx, cancel := context.WithTimeout(ctx, c.dist.DispatchTimeout)
		defer cancel()

		start := time.Now()
		res, err := c.transport.Dispatch(dctx, c.workers[worker], task)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			c.metrics.RecordDispatch(c.workers[worker], elapsed, false)
			return fmt.Errorf("dispatch to %s: %w", c.workers[worker], err)
		}
		if res.Error != "" {
			c.metrics.RecordDispatch(c.workers[worker], elapsed, false)
			return fmt.Errorf("%w: worker %s: %s", types.ErrRemoteExecution, c.workers[worker], res.Error)
		}
		c.metrics.RecordDispatch(c.workers[worker], elapsed, true)

		resMu.Lock()
		results = append(results, res)
		resMu.Unlock()

		return nil
	}

	stats, err := c.lp.Run(ctx, item, fn)
	if err != nil {
		return nil, err
	}

	// Results arrive in completion order; hand them back in issue order.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Seq < results[j].Seq
	})

	if err := c.retire(); err != nil {
		return results, err
	}

	c.logger.Info("distributed session complete",
		"workers", len(c.workers),
		"tasks", stats.Chunks,
		"rows", stats.Rows,
		"duration", stats.Duration,
	)

	return results, nil
}

// Close terminates the session's workers if Run has not already done so,
// then releases the transport. Close is idempotent and safe to call after
// a failed or abandoned session.
func (c *Coordinator) Close() error {
	return c.retire()
}

// retire sends the termination fan-out, closes the transport and the inner
// partitioner. Runs at most once; later calls return nil.
func (c *Coordinator) retire() error {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return nil
	}
	c.done = true
	c.mu.Unlock()

	tctx, cancel := context.WithTimeout(context.Background(), c.dist.OperationTimeout)
	defer cancel()

	var firstErr error
	if err := c.transport.Terminate(tctx); err != nil {
		c.logger.Error("termination fan-out failed", "error", err)
		firstErr = fmt.Errorf("failed to terminate workers: %w", err)
	} else {
		c.metrics.RecordTermination(len(c.workers))
	}

	if err := c.transport.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.lp.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
