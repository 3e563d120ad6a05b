package distributed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"github.com/panjf2000/ants/v2"

	"github.com/arloliu/morsel"
	"github.com/arloliu/morsel/buffer"
	"github.com/arloliu/morsel/internal/cputopo"
	"github.com/arloliu/morsel/internal/logging"
	"github.com/arloliu/morsel/internal/metrics"
	"github.com/arloliu/morsel/types"
)

// TaskHandler executes one dispatched task and returns its serialized output.
//
// The handler runs on the worker's execution pool and must be safe for
// concurrent invocation. task.Payload is staged in worker-owned buffer
// storage and is valid only for the duration of the call; handlers that
// need the payload afterwards must copy it.
//
// The context is the one passed to Serve and is canceled when the worker
// shuts down; long-running handlers should honor it.
type TaskHandler func(ctx context.Context, task *Task) ([]byte, error)

// Worker serves dispatched tasks from a coordinator until it receives a
// termination message or its context is canceled.
//
// A worker subscribes to two subjects: a task inbox it executes tasks from,
// and a control inbox it receives the termination frame on. Task execution
// runs on a bounded goroutine pool; the termination frame stops intake
// first and then waits for every in-flight task to finish, so no dispatched
// work is abandoned.
//
// Under the MESSAGE_PASSING backend the worker owns one rank mailbox in
// [1, participants) and publishes results to the coordinator's rank 0
// mailbox. Under REMOTE_CALL it serves one address from
// Config.Distributed.WorkerAddresses and replies directly to each request.
type Worker struct {
	cfg     morsel.DistributedConfig
	nc      *nats.Conn
	rank    int
	address string
	handler TaskHandler

	logger  types.Logger
	metrics types.MetricsCollector

	alloc    *buffer.Allocator
	ownAlloc bool
	poolSize int

	// runCtx is the Serve context, captured before the subscriptions are
	// installed so handlers never observe a nil context.
	runCtx context.Context

	pool     *ants.Pool
	inflight sync.WaitGroup

	busy      atomic.Int64
	state     atomic.Int32
	started   atomic.Bool
	tasksDone atomic.Uint64

	terminateOnce sync.Once
	terminateCh   chan struct{}
}

// NewWorker creates a worker bound to one rank of a distributed session.
//
// The configuration is defaulted and validated before any broker
// interaction. The rank identifies this worker's mailbox: ranks start at 1
// because rank 0 is the coordinator. Under REMOTE_CALL the rank selects
// the served address, WorkerAddresses[rank-1].
//
// Parameters:
//   - cfg: Configuration; the Distributed section selects the backend
//   - nc: Established NATS connection, owned by the caller
//   - rank: Worker rank within the session (rank >= 1)
//   - handler: Task execution callback
//   - opts: Optional dependencies (logger, metrics, allocator, pool size)
//
// Returns:
//   - *Worker: Ready worker; call Serve to start processing
//   - error: ErrInvalidConfig, ErrNATSConnectionRequired or
//     ErrTaskHandlerRequired on invalid arguments
//
// Example:
//
//	worker, err := distributed.NewWorker(&cfg, nc, 1, func(ctx context.Context, task *distributed.Task) ([]byte, error) {
//	    return runPipeline(ctx, task.Range(), task.Payload)
//	})
//	if err != nil {
//	    return err
//	}
//	return worker.Serve(ctx)
func NewWorker(cfg *morsel.Config, nc *nats.Conn, rank int, handler TaskHandler, opts ...Option) (*Worker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", types.ErrInvalidConfig)
	}
	morsel.SetDefaults(cfg)
	if err := cfg.Distributed.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if nc == nil {
		return nil, types.ErrNATSConnectionRequired
	}
	if handler == nil {
		return nil, types.ErrTaskHandlerRequired
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

	w := &Worker{
		cfg:         cfg.Distributed,
		nc:          nc,
		rank:        rank,
		handler:     handler,
		logger:      options.logger,
		metrics:     options.metrics,
		terminateCh: make(chan struct{}),
	}

	switch cfg.Distributed.Backend {
	case types.BackendMessagePassing:
		if rank < 1 || rank >= cfg.Distributed.Participants {
			return nil, fmt.Errorf("%w: rank %d out of range [1, %d)",
				types.ErrInvalidConfig, rank, cfg.Distributed.Participants)
		}
	case types.BackendRemoteCall:
		if rank < 1 || rank > len(cfg.Distributed.WorkerAddresses) {
			return nil, fmt.Errorf("%w: rank %d has no worker address (have %d)",
				types.ErrInvalidConfig, rank, len(cfg.Distributed.WorkerAddresses))
		}
		w.address = cfg.Distributed.WorkerAddresses[rank-1]
	}

	w.alloc = options.allocator
	if w.alloc == nil {
		w.alloc = buffer.New(
			buffer.WithCounting(!cfg.DisableRefCounting),
			buffer.WithLogger(options.logger),
			buffer.WithMetrics(options.metrics),
		)
		w.ownAlloc = true
	}

	w.poolSize = options.poolSize
	if w.poolSize <= 0 {
		w.poolSize = cfg.NumberOfThreads
	}
	if w.poolSize <= 0 {
		w.poolSize = cputopo.Discover().DefaultWorkers(cfg.HyperthreadingEnabled)
	}

	return w, nil
}

// Serve subscribes the worker's inboxes and blocks until a termination
// message arrives or ctx is canceled.
//
// On termination the worker stops task intake first, waits for all
// in-flight tasks to complete, and only then detaches; Serve returns nil.
// On context cancellation it drains the same way and returns the context
// error. Serve may be called at most once.
//
// Parameters:
//   - ctx: Serving context, passed through to every TaskHandler call
//
// Returns:
//   - error: Context error on cancellation, ErrBackendUnavailable when the
//     subscriptions cannot be installed, nil after a clean termination
func (w *Worker) Serve(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		if types.NodeState(w.state.Load()) == types.NodeTerminated {
			return types.ErrTerminated
		}

		return types.ErrAlreadyRunning
	}

	pool, err := ants.NewPool(w.poolSize)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	w.pool = pool
	defer w.pool.Release()

	// Captured before Subscribe: the first task can arrive as soon as the
	// subscription is installed.
	w.runCtx = ctx

	taskSub, err := w.nc.Subscribe(w.taskInbox(), w.onTask)
	if err != nil {
		return fmt.Errorf("%w: failed to subscribe %s: %w", types.ErrBackendUnavailable, w.taskInbox(), err)
	}
	ctlSub, err := w.nc.Subscribe(w.controlInbox(), w.onControl)
	if err != nil {
		_ = taskSub.Unsubscribe()
		return fmt.Errorf("%w: failed to subscribe %s: %w", types.ErrBackendUnavailable, w.controlInbox(), err)
	}
	if err := w.nc.Flush(); err != nil {
		_ = taskSub.Unsubscribe()
		_ = ctlSub.Unsubscribe()

		return fmt.Errorf("%w: %w", types.ErrBackendUnavailable, err)
	}

	w.logger.Info("worker serving",
		"backend", w.cfg.Backend.String(),
		"rank", w.rank,
		"taskInbox", w.taskInbox(),
		"poolSize", w.poolSize,
	)

	var cause error
	select {
	case <-ctx.Done():
		cause = ctx.Err()
	case <-w.terminateCh:
	}

	// Stop intake before draining so the in-flight count is monotone
	// decreasing while we wait.
	if err := taskSub.Unsubscribe(); err != nil {
		w.logger.Error("failed to unsubscribe task inbox", "error", err)
	}
	w.inflight.Wait()
	if err := ctlSub.Unsubscribe(); err != nil {
		w.logger.Error("failed to unsubscribe control inbox", "error", err)
	}
	if w.ownAlloc {
		_ = w.alloc.Close()
	}

	w.state.Store(int32(types.NodeTerminated))
	w.logger.Info("worker detached",
		"rank", w.rank,
		"tasksProcessed", w.tasksDone.Load(),
	)

	return cause
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() types.NodeState {
	return types.NodeState(w.state.Load())
}

// TasksProcessed returns the number of tasks executed and answered so far.
func (w *Worker) TasksProcessed() uint64 {
	return w.tasksDone.Load()
}

// taskInbox is the subject this worker receives tasks on.
func (w *Worker) taskInbox() string {
	if w.cfg.Backend == types.BackendRemoteCall {
		return w.address
	}

	return rankTaskSubject(w.cfg.SubjectPrefix, w.rank)
}

// controlInbox is the subject this worker receives the termination frame on.
func (w *Worker) controlInbox() string {
	if w.cfg.Backend == types.BackendRemoteCall {
		return addressControlSubject(w.address)
	}

	return rankControlSubject(w.cfg.SubjectPrefix, w.rank)
}

// onTask decodes one dispatched task and submits it to the execution pool.
// Submit blocks when every pool worker is busy, which backpressures intake
// instead of queueing unbounded work.
func (w *Worker) onTask(msg *nats.Msg) {
	task, err := DecodeTask(msg.Data)
	if err != nil {
		// Without a task id there is nothing to correlate a reply with.
		w.logger.Error("dropping malformed task", "error", err)
		return
	}

	w.inflight.Add(1)
	if err := w.pool.Submit(func() {
		defer w.inflight.Done()
		w.execute(task, msg)
	}); err != nil {
		w.inflight.Done()
		w.logger.Error("failed to submit task", "taskID", task.TaskID, "error", err)
		w.reply(msg, &Result{TaskID: task.TaskID, Seq: task.Seq, Error: err.Error()})
	}
}

// execute stages the task payload, runs the handler and replies with the
// result. Runs on the execution pool.
func (w *Worker) execute(task *Task, msg *nats.Msg) {
	if w.busy.Add(1) == 1 {
		w.state.CompareAndSwap(int32(types.NodeIdle), int32(types.NodeBusy))
	}
	defer func() {
		if w.busy.Add(-1) == 0 {
			w.state.CompareAndSwap(int32(types.NodeBusy), int32(types.NodeIdle))
		}
	}()

	res := &Result{TaskID: task.TaskID, Seq: task.Seq}

	var staged *buffer.Buffer
	if len(task.Payload) > 0 {
		b, err := w.alloc.FromBytes(task.Payload)
		if err != nil {
			res.Error = fmt.Sprintf("failed to stage payload: %v", err)
			w.reply(msg, res)

			return
		}
		staged = b
		task.Payload = staged.Bytes()
	}

	output, err := w.handler(w.runCtx, task)

	if staged != nil {
		if rerr := staged.Release(); rerr != nil {
			w.logger.Error("failed to release task payload", "taskID", task.TaskID, "error", rerr)
		}
	}

	if err != nil {
		res.Error = err.Error()
	} else {
		res.Output = output
	}

	w.reply(msg, res)
	w.tasksDone.Add(1)
}

// reply routes a result back to the coordinator: the rank 0 result mailbox
// under MESSAGE_PASSING, the request reply subject under REMOTE_CALL.
func (w *Worker) reply(msg *nats.Msg, res *Result) {
	data, err := EncodeResult(res)
	if err != nil {
		w.logger.Error("failed to encode result", "taskID", res.TaskID, "error", err)
		return
	}

	if w.cfg.Backend == types.BackendRemoteCall {
		err = msg.Respond(data)
	} else {
		err = w.nc.Publish(resultSubject(w.cfg.SubjectPrefix), data)
	}
	if err != nil {
		w.logger.Error("failed to publish result", "taskID", res.TaskID, "error", err)
	}
}

// onControl handles one control frame. The first termination frame releases
// Serve; duplicates and unknown frames are ignored.
func (w *Worker) onControl(msg *nats.Msg) {
	if !IsTerminate(msg.Data) {
		w.logger.Warn("ignoring unknown control frame", "bytes", len(msg.Data))
		return
	}

	// Remote-call termination is a request awaiting this acknowledgment.
	if msg.Reply != "" {
		if err := msg.Respond(terminateFrame); err != nil {
			w.logger.Error("failed to acknowledge termination", "error", err)
		}
	}

	w.terminateOnce.Do(func() {
		close(w.terminateCh)
	})
}
