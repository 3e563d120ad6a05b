package distributed

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/morsel"
	"github.com/arloliu/morsel/types"
)

// mailboxTransport implements the message-passing backend over
// rank-addressed NATS mailboxes.
//
// The coordinator holds rank 0 and subscribes one result mailbox; tasks go
// to per-rank task mailboxes and are correlated back by TaskID through the
// pending map. Termination publishes the detach frame to every worker
// rank's control mailbox.
type mailboxTransport struct {
	nc     *nats.Conn
	prefix string
	logger types.Logger

	// workers maps the exposed identity labels to ranks 1..participants-1.
	workers []string
	ranks   map[string]int

	// pending correlates in-flight TaskIDs with their waiting dispatcher.
	pending *xsync.Map[string, chan *Result]

	resultSub  *nats.Subscription
	terminated atomic.Bool
	closed     atomic.Bool
}

// newMailboxTransport subscribes the coordinator's result mailbox and
// prepares the per-rank addressing tables.
//
// The participant count is validated before any broker interaction, so a
// misconfigured session fails before any dispatch can occur.
func newMailboxTransport(nc *nats.Conn, cfg *morsel.DistributedConfig, logger types.Logger) (*mailboxTransport, error) {
	if cfg.Participants < 2 {
		return nil, fmt.Errorf("%w: got %d", types.ErrParticipants, cfg.Participants)
	}

	t := &mailboxTransport{
		nc:      nc,
		prefix:  cfg.SubjectPrefix,
		logger:  logger,
		pending: xsync.NewMap[string, chan *Result](),
		ranks:   make(map[string]int, cfg.Participants-1),
	}
	for rank := 1; rank < cfg.Participants; rank++ {
		label := rankLabel(rank)
		t.workers = append(t.workers, label)
		t.ranks[label] = rank
	}

	sub, err := nc.Subscribe(resultSubject(t.prefix), t.onResult)
	if err != nil {
		return nil, fmt.Errorf("%w: subscribing result mailbox: %w", types.ErrBackendUnavailable, err)
	}
	if err := nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("%w: %w", types.ErrBackendUnavailable, err)
	}
	t.resultSub = sub

	return t, nil
}

// Workers returns the rank labels of all worker participants.
func (t *mailboxTransport) Workers() []string {
	return t.workers
}

// Dispatch publishes a task to the worker's rank mailbox and blocks until
// the correlated result arrives or ctx expires.
func (t *mailboxTransport) Dispatch(ctx context.Context, worker string, task *Task) (*Result, error) {
	if t.terminated.Load() || t.closed.Load() {
		return nil, types.ErrTerminated
	}

	rank, ok := t.ranks[worker]
	if !ok {
		return nil, fmt.Errorf("%w: unknown worker %q", types.ErrRemoteExecution, worker)
	}

	data, err := EncodeTask(task)
	if err != nil {
		return nil, err
	}

	// Buffered so the result handler never blocks on a dispatcher that
	// already gave up.
	ch := make(chan *Result, 1)
	t.pending.Store(task.TaskID, ch)
	defer t.pending.Delete(task.TaskID)

	if err := t.nc.Publish(rankTaskSubject(t.prefix, rank), data); err != nil {
		return nil, fmt.Errorf("%w: publishing task to %s: %w", types.ErrRemoteExecution, worker, err)
	}

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: awaiting result from %s: %w", types.ErrRemoteExecution, worker, ctx.Err())
	}
}

// onResult routes one received result to the dispatcher waiting on it.
func (t *mailboxTransport) onResult(msg *nats.Msg) {
	res, err := DecodeResult(msg.Data)
	if err != nil {
		t.logger.Error("discarding malformed result", "error", err)
		return
	}

	ch, ok := t.pending.LoadAndDelete(res.TaskID)
	if !ok {
		// The dispatcher timed out or the session ended.
		t.logger.Warn("discarding unmatched result", "taskID", res.TaskID, "seq", res.Seq)
		return
	}
	ch <- res
}

// Terminate publishes the detach frame to every worker rank, once across
// the transport's lifetime.
func (t *mailboxTransport) Terminate(ctx context.Context) error {
	if !t.terminated.CompareAndSwap(false, true) {
		return nil
	}

	for _, worker := range t.workers {
		rank := t.ranks[worker]
		if err := t.nc.Publish(rankControlSubject(t.prefix, rank), terminateFrame); err != nil {
			return fmt.Errorf("terminating %s: %w", worker, err)
		}
	}

	if err := t.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flushing termination frames: %w", err)
	}

	return nil
}

// Close drops the result mailbox subscription.
func (t *mailboxTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	if t.resultSub != nil {
		if err := t.resultSub.Unsubscribe(); err != nil {
			return fmt.Errorf("unsubscribing result mailbox: %w", err)
		}
	}

	return nil
}
