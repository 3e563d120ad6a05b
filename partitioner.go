package morsel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/morsel/internal/cputopo"
	"github.com/arloliu/morsel/internal/hooks"
	"github.com/arloliu/morsel/internal/logging"
	"github.com/arloliu/morsel/internal/metrics"
	"github.com/arloliu/morsel/queue"
	"github.com/arloliu/morsel/sched"
	"github.com/arloliu/morsel/types"
)

// ProcessFunc executes one chunk of a work item.
//
// The function is called concurrently from worker goroutines, once per
// chunk; worker identifies the calling worker in [0, Workers()). Returning
// an error cancels the session: in-flight chunks finish or observe ctx
// cancellation, unprocessed chunks are abandoned, and Run reports the
// failure wrapped in ErrLocalProcessing.
type ProcessFunc func(ctx context.Context, worker int, chunk Chunk) error

// defaultTraceCapacity bounds the trace ring created when DebugTrace is
// enabled without a caller-supplied sink.
const defaultTraceCapacity = 16384

// Partitioner splits data-parallel work items into chunks and drives them
// through a pool of worker goroutines.
//
// Partitioner is the main entry point of the morsel library. It handles:
//   - Chunk sizing via the configured self-scheduling scheme
//   - Queue layout and work-stealing across workers
//   - Worker placement and optional CPU pinning
//   - Session metrics, lifecycle hooks and debug tracing
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - At most one session runs at a time; concurrent Run calls fail with
//     ErrAlreadyRunning
//
// Lifecycle:
//   - Create with NewPartitioner()
//   - Call Run() once per work item
//   - Call Close() to reject further sessions
type Partitioner struct {
	cfg Config

	// Optional dependencies
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
	trace   TraceSink

	// Topology plan
	workers int
	slots   []cputopo.Slot
	groups  []int

	// State management
	state     atomic.Int32 // State
	lastStats atomic.Value // SessionStats

	mu sync.Mutex
}

// NewPartitioner creates a new Partitioner with the provided configuration.
//
// Missing configuration values are defaulted and the result validated; the
// worker count is resolved against the discovered CPU topology when
// NumberOfThreads is zero.
//
// Returns a concrete *Partitioner struct following the "accept interfaces,
// return structs" principle. Consumers can define their own interfaces for
// testing if needed.
//
// Parameters:
//   - cfg: Runtime configuration with parsed durations
//   - opts: Optional configuration (hooks, metrics, logger, trace sink)
//
// Returns:
//   - *Partitioner: Initialized partitioner instance
//   - error: Validation error if configuration is invalid
//
// Example:
//
//	cfg := morsel.DefaultConfig()
//	cfg.Scheme = morsel.SchemeGuided
//	cfg.QueueLayout = morsel.LayoutPerCPU
//	lp, err := morsel.NewPartitioner(&cfg)
func NewPartitioner(cfg *Config, opts ...Option) (*Partitioner, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}

	// Fill in missing configuration values with defaults
	SetDefaults(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Apply options
	options := &partitionerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Provide safe defaults for optional dependencies to avoid nil checks everywhere
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	// Validate with warnings after logger is available
	cfg.ValidateWithWarnings(loggerInstance)

	hooksInstance := options.hooks
	if hooksInstance == nil {
		nopHooks := hooks.NewNop()
		hooksInstance = &nopHooks
	}

	// Resolve the worker count and CPU placement from the topology
	topo := cputopo.Discover()
	workers := cfg.NumberOfThreads
	if workers == 0 {
		workers = topo.DefaultWorkers(cfg.HyperthreadingEnabled)
	}
	slots := topo.Plan(workers, cfg.HyperthreadingEnabled)

	groups := options.workerGroups
	if groups != nil {
		if len(groups) != workers {
			return nil, fmt.Errorf(
				"%w: worker groups length %d does not match worker count %d",
				ErrInvalidConfig, len(groups), workers,
			)
		}
		for w, g := range groups {
			if g < 0 {
				return nil, fmt.Errorf("%w: worker %d has negative group %d", ErrInvalidConfig, w, g)
			}
		}
	} else {
		groups = make([]int, workers)
		for w, slot := range slots {
			groups[w] = slot.Node
		}
	}

	// Tracing is gated by DebugTrace; a default ring is created when the
	// caller enables tracing without supplying a sink.
	var trace TraceSink
	if cfg.DebugTrace {
		trace = options.traceSink
		if trace == nil {
			trace = NewTraceRing(defaultTraceCapacity)
		}
	}

	lp := &Partitioner{
		cfg:     *cfg,
		hooks:   hooksInstance,
		metrics: metricsCollector,
		logger:  loggerInstance,
		trace:   trace,
		workers: workers,
		slots:   slots,
		groups:  groups,
	}

	// Initialize state
	lp.state.Store(int32(StateIdle))
	lp.lastStats.Store(SessionStats{})

	lp.logger.Debug("partitioner created",
		"scheme", cfg.Scheme.String(),
		"queueLayout", cfg.QueueLayout.String(),
		"victimSelection", cfg.VictimSelection.String(),
		"workers", workers,
	)

	return lp, nil
}

// Workers returns the resolved worker count.
func (lp *Partitioner) Workers() int {
	return lp.workers
}

// State returns the current partitioner lifecycle state.
func (lp *Partitioner) State() State {
	return State(lp.state.Load())
}

// Stats returns the statistics of the most recently completed session.
//
// Returns:
//   - SessionStats: Last session statistics (zero value before the first run)
func (lp *Partitioner) Stats() SessionStats {
	if s, ok := lp.lastStats.Load().(SessionStats); ok {
		return s
	}

	return SessionStats{}
}

// Trace returns the trace sink recording scheduling events, or nil when
// Config.DebugTrace is disabled.
func (lp *Partitioner) Trace() TraceSink {
	return lp.trace
}

// Close rejects further sessions. Safe to call multiple times.
//
// Returns:
//   - error: ErrAlreadyRunning when a session is in progress, nil otherwise
func (lp *Partitioner) Close() error {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	switch lp.State() {
	case StateClosed:
		return nil
	case StateRunning:
		return ErrAlreadyRunning
	default:
		lp.transitionState(context.Background(), lp.State(), StateClosed)
		return nil
	}
}

// Run partitions one work item into chunks and processes every chunk
// through fn, blocking until the session completes.
//
// The session starts Workers() worker goroutines (optionally pinned to
// CPUs), produces chunks sized by the configured scheme, and lets idle
// workers steal from victim queues. Run returns once every chunk has been
// processed, a worker fails, or ctx is canceled.
//
// Parameters:
//   - ctx: Session context; cancellation aborts the session
//   - item: Work item whose range is split into chunks
//   - fn: Kernel invoked once per chunk
//
// Returns:
//   - SessionStats: Statistics of the completed session
//   - error: ErrLocalProcessing wrapping kernel failures, ctx error on
//     cancellation, ErrSchedulingInvariant on internal bugs, nil on success
func (lp *Partitioner) Run(ctx context.Context, item WorkItem, fn ProcessFunc) (SessionStats, error) {
	if fn == nil {
		return SessionStats{}, ErrNilProcessFunc
	}
	if item.Range.IsEmpty() {
		return SessionStats{}, ErrEmptyWorkItem
	}

	if err := lp.beginSession(ctx); err != nil {
		return SessionStats{}, err
	}
	defer lp.endSession(ctx)

	rows := item.Range.Len()
	scheme := lp.cfg.Scheme

	pool := queue.NewPool(queue.Config{
		Layout:        lp.cfg.QueueLayout,
		Workers:       lp.workers,
		GroupOfWorker: lp.groups,
		Victim:        lp.cfg.VictimSelection,
		Seed:          lp.cfg.Seed,
		Metrics:       lp.metrics,
	})

	s := &session{
		lp:     lp,
		item:   item,
		fn:     fn,
		scheme: scheme,
		pool:   pool,
		tokens: make(chan struct{}, 2*lp.workers),
		start:  time.Now(),
	}
	if err := s.preparePolicies(); err != nil {
		return SessionStats{}, err
	}

	lp.metrics.RecordSessionStart(scheme.String(), lp.workers, rows)
	if lp.hooks.OnSessionStart != nil {
		go func() {
			if err := lp.hooks.OnSessionStart(ctx, scheme, lp.workers, rows); err != nil {
				lp.logger.Error("session start hook error", "error", err)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)

	// Workers blocked in the pool wait on a condition variable that cannot
	// observe ctx; wake them when the session context ends.
	wakeDone := make(chan struct{})
	var wakeWG sync.WaitGroup
	wakeWG.Add(1)
	go func() {
		defer wakeWG.Done()
		select {
		case <-gctx.Done():
			pool.Wake()
		case <-wakeDone:
		}
	}()

	for w := range lp.workers {
		g.Go(func() error {
			return s.runWorker(gctx, w)
		})
	}
	g.Go(func() error {
		return s.produce(gctx)
	})

	err := g.Wait()
	close(wakeDone)
	wakeWG.Wait()

	// Kernel failures aggregate; producer and cancellation errors pass
	// through unchanged.
	s.errMu.Lock()
	kernelErrs := s.errs
	s.errMu.Unlock()
	if len(kernelErrs) > 0 {
		err = fmt.Errorf("%w: %w", ErrLocalProcessing, errors.Join(kernelErrs...))
	}

	if err == nil {
		err = s.checkInvariants(rows)
	}

	qs := pool.Stats()
	stats := SessionStats{
		Scheme:       scheme,
		Workers:      lp.workers,
		Rows:         rows,
		Chunks:       s.issuedChunks.Load(),
		Claims:       qs.Claims,
		Steals:       qs.Steals,
		FailedProbes: qs.FailedProbes,
		Duration:     time.Since(s.start),
	}
	lp.lastStats.Store(stats)
	lp.metrics.RecordSessionDuration(scheme.String(), stats.Duration.Seconds(), err == nil)

	if err != nil {
		lp.logger.Error("session failed",
			"scheme", scheme.String(),
			"rows", rows,
			"error", err,
		)
		if lp.hooks.OnError != nil {
			go func() {
				if hookErr := lp.hooks.OnError(ctx, err); hookErr != nil {
					lp.logger.Error("error hook error", "error", hookErr)
				}
			}()
		}
	} else {
		lp.logger.Debug("session complete",
			"scheme", scheme.String(),
			"rows", rows,
			"chunks", stats.Chunks,
			"steals", stats.Steals,
			"duration", stats.Duration,
		)
	}

	if lp.hooks.OnSessionDone != nil {
		go func() {
			if hookErr := lp.hooks.OnSessionDone(ctx, stats); hookErr != nil {
				lp.logger.Error("session done hook error", "error", hookErr)
			}
		}()
	}

	return stats, err
}

// beginSession moves the partitioner into the running state, rejecting
// concurrent sessions and closed partitioners.
func (lp *Partitioner) beginSession(ctx context.Context) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	switch lp.State() {
	case StateClosed:
		return ErrClosed
	case StateRunning:
		return ErrAlreadyRunning
	default:
		lp.transitionState(ctx, StateIdle, StateRunning)
		return nil
	}
}

// endSession returns the partitioner to idle unless it was closed mid-run.
func (lp *Partitioner) endSession(ctx context.Context) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.State() == StateRunning {
		lp.transitionState(ctx, StateRunning, StateIdle)
	}
}

// transitionState validates and applies a lifecycle transition.
func (lp *Partitioner) transitionState(ctx context.Context, from, to State) {
	if !isValidTransition(from, to) {
		lp.logger.Error("invalid state transition attempted",
			"from", from.String(),
			"to", to.String(),
		)

		return
	}

	lp.state.Store(int32(to))

	lp.logger.Debug("state transition",
		"from", from.String(),
		"to", to.String(),
	)

	// Trigger state change hook
	if lp.hooks.OnStateChanged != nil {
		// Run hook in background to avoid blocking the session
		go func() {
			if err := lp.hooks.OnStateChanged(ctx, from, to); err != nil {
				lp.logger.Error("state change hook error", "from", from, "to", to, "error", err)
			}
		}()
	}
}

// isValidTransition validates that a state transition is allowed.
func isValidTransition(from, to State) bool {
	validTransitions := map[State][]State{
		StateIdle:    {StateRunning, StateClosed},
		StateRunning: {StateIdle, StateClosed},
		StateClosed:  {}, // Terminal state - no transitions allowed
	}

	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// session carries the mutable state of one Run call.
type session struct {
	lp     *Partitioner
	item   WorkItem
	fn     ProcessFunc
	scheme types.Scheme
	pool   *queue.Pool

	// Plain mode: one policy sizes the whole session.
	policy   sched.Policy
	feedback sched.FeedbackPolicy

	// Pre-partitioned mode: one policy per queue, sized by the queue's
	// share and consumer count. Observations route to the policy that
	// sized the chunk via Chunk.Queue.
	queueShares   []uint64
	queuePolicies []sched.Policy
	queueFeedback []sched.FeedbackPolicy

	// tokens paces production: a chunk occupies a token from enqueue until
	// its kernel returns, bounding outstanding work to 2 chunks per worker
	// so feedback schemes see observations before sizing later chunks.
	tokens chan struct{}

	issuedChunks    atomic.Uint64
	issuedRows      atomic.Uint64
	processedChunks atomic.Uint64
	processedRows   atomic.Uint64

	errMu sync.Mutex
	errs  []error

	start time.Time
}

// preparePolicies instantiates the session's policies before any worker
// starts, so observation routing never races with policy construction.
func (s *session) preparePolicies() error {
	cfg := &s.lp.cfg

	if !cfg.PrePartitionRows || s.pool.NumQueues() < 2 {
		policy, err := sched.New(s.scheme, s.item.Range.Len(), s.lp.workers, cfg.MinimumTaskSize,
			sched.WithSeed(cfg.Seed))
		if err != nil {
			return err
		}
		s.policy = policy
		s.feedback, _ = policy.(sched.FeedbackPolicy)

		return nil
	}

	queues := s.pool.NumQueues()
	s.queueShares = sched.SplitEven(s.item.Range.Len(), queues)

	// Consumers per queue size each queue's policy; a queue with no home
	// workers still gets a share (stealable), sized for one consumer.
	consumers := make([]int, queues)
	for w := range s.lp.workers {
		consumers[s.pool.HomeQueue(w)]++
	}

	s.queuePolicies = make([]sched.Policy, queues)
	s.queueFeedback = make([]sched.FeedbackPolicy, queues)
	for q, share := range s.queueShares {
		seed := cfg.Seed
		if seed != 0 {
			seed += uint64(q)
		}
		policy, err := sched.New(s.scheme, share, max(consumers[q], 1), cfg.MinimumTaskSize,
			sched.WithSeed(seed))
		if err != nil {
			return err
		}
		s.queuePolicies[q] = policy
		s.queueFeedback[q], _ = policy.(sched.FeedbackPolicy)
	}

	return nil
}

// produce issues every chunk of the session and closes queue intake.
func (s *session) produce(ctx context.Context) error {
	defer s.pool.CloseIntake()

	if s.queuePolicies != nil {
		return s.producePrePartitioned(ctx)
	}

	next := s.item.Range.Begin
	remaining := s.item.Range.Len()
	queues := s.pool.NumQueues()
	target := 0
	var seq uint64

	for remaining > 0 {
		if err := s.acquireToken(ctx); err != nil {
			return err
		}

		size := s.policy.NextChunkSize(remaining)
		if size == 0 || size > remaining {
			return fmt.Errorf("%w: scheme %s proposed chunk of %d with %d remaining",
				ErrSchedulingInvariant, s.scheme.String(), size, remaining)
		}

		s.offer(types.Chunk{
			Range: types.Range{Begin: next, End: next + size},
			Seq:   seq,
			Queue: target,
		})

		next += size
		remaining -= size
		seq++
		target = (target + 1) % queues
	}

	return nil
}

// producePrePartitioned deals each queue its share up front, sizing chunks
// with that queue's own policy instance. Queues are drained round-robin so
// early queues cannot monopolize the pacing tokens.
func (s *session) producePrePartitioned(ctx context.Context) error {
	cursor := make([]uint64, len(s.queueShares))
	remaining := make([]uint64, len(s.queueShares))

	next := s.item.Range.Begin
	for q, share := range s.queueShares {
		cursor[q] = next
		remaining[q] = share
		next += share
	}

	var seq uint64
	for {
		progressed := false
		for q, policy := range s.queuePolicies {
			if remaining[q] == 0 {
				continue
			}
			if err := s.acquireToken(ctx); err != nil {
				return err
			}

			size := policy.NextChunkSize(remaining[q])
			if size == 0 || size > remaining[q] {
				return fmt.Errorf("%w: scheme %s proposed chunk of %d with %d remaining on queue %d",
					ErrSchedulingInvariant, s.scheme.String(), size, remaining[q], q)
			}

			s.offer(types.Chunk{
				Range: types.Range{Begin: cursor[q], End: cursor[q] + size},
				Seq:   seq,
				Queue: q,
			})

			cursor[q] += size
			remaining[q] -= size
			seq++
			progressed = true
		}
		if !progressed {
			return nil
		}
	}
}

// offer enqueues one chunk and records its issuance.
func (s *session) offer(chunk types.Chunk) {
	s.pool.Offer(chunk.Queue, chunk)
	s.issuedChunks.Add(1)
	s.issuedRows.Add(chunk.Len())
	s.lp.metrics.RecordChunkIssued(s.scheme.String(), chunk.Len())
	s.traceEvent(types.TraceEnqueue, chunk, -1, -1)
}

// observe feeds a finished chunk back to the policy that sized it.
func (s *session) observe(worker int, chunk types.Chunk, elapsed time.Duration) {
	if s.queueFeedback != nil {
		if fb := s.queueFeedback[chunk.Queue]; fb != nil {
			fb.Observe(worker, chunk.Len(), elapsed)
		}

		return
	}
	if s.feedback != nil {
		s.feedback.Observe(worker, chunk.Len(), elapsed)
	}
}

// runWorker is the claim/steal/process loop of one worker.
func (s *session) runWorker(ctx context.Context, w int) error {
	lp := s.lp

	if lp.cfg.PinWorkers && w < len(lp.slots) {
		// The locked thread is discarded when the goroutine exits, taking
		// the affinity mask with it.
		runtime.LockOSThread()
		if err := cputopo.Pin(lp.slots[w].CPU); err != nil {
			lp.logger.Warn("worker pinning failed",
				"worker", w,
				"cpu", lp.slots[w].CPU,
				"error", err,
			)
		}
	}

	for {
		grab, ok, err := s.pool.Next(ctx, w)
		if err != nil {
			return err
		}
		if !ok {
			s.traceEvent(types.TraceExhaust, types.Chunk{Queue: s.pool.HomeQueue(w)}, w, -1)
			return nil
		}

		chunk := grab.Chunk
		if grab.Victim >= 0 {
			s.traceEvent(types.TraceSteal, chunk, w, grab.Victim)
		} else {
			s.traceEvent(types.TraceClaim, chunk, w, -1)
		}

		begin := time.Now()
		err = s.fn(ctx, w, chunk)
		elapsed := time.Since(begin)
		s.releaseToken()

		if err != nil {
			werr := fmt.Errorf("worker %d chunk %s: %w", w, chunk.Range.String(), err)
			s.errMu.Lock()
			s.errs = append(s.errs, werr)
			s.errMu.Unlock()

			return werr
		}

		s.observe(w, chunk, elapsed)
		lp.metrics.RecordChunkProcessed(w, chunk.Len(), elapsed.Seconds())
		s.processedChunks.Add(1)
		s.processedRows.Add(chunk.Len())
		s.traceEvent(types.TraceDone, chunk, w, -1)
	}
}

// acquireToken blocks until production may proceed or the session ends.
func (s *session) acquireToken(ctx context.Context) error {
	select {
	case s.tokens <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// releaseToken returns a token after a chunk's kernel finished.
func (s *session) releaseToken() {
	<-s.tokens
}

// checkInvariants verifies that the issued chunks tiled the work item and
// every chunk was consumed exactly once.
func (s *session) checkInvariants(rows uint64) error {
	issued := s.issuedRows.Load()
	processed := s.processedRows.Load()
	if issued != rows || processed != rows {
		return fmt.Errorf("%w: issued %d rows, processed %d rows, expected %d",
			ErrSchedulingInvariant, issued, processed, rows)
	}
	if s.issuedChunks.Load() != s.processedChunks.Load() {
		return fmt.Errorf("%w: issued %d chunks, processed %d",
			ErrSchedulingInvariant, s.issuedChunks.Load(), s.processedChunks.Load())
	}

	return nil
}

// traceEvent records one scheduling event when tracing is enabled.
func (s *session) traceEvent(kind types.TraceKind, chunk types.Chunk, worker, victim int) {
	if s.lp.trace == nil {
		return
	}

	s.lp.trace.Record(types.TraceEvent{
		Kind:   kind,
		Seq:    chunk.Seq,
		Range:  chunk.Range,
		Worker: worker,
		Queue:  chunk.Queue,
		Victim: victim,
		At:     time.Now(),
	})
}
