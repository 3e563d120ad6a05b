package distributed

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/morsel"
	"github.com/arloliu/morsel/types"
)

// Transport is the capability the coordinator dispatches through.
//
// Both backends implement the same contract: Dispatch sends one task to one
// worker and blocks for its result, Terminate delivers exactly one detach
// frame per worker, Close releases broker resources. Implementations are
// safe for concurrent Dispatch calls; Terminate and Close are idempotent.
type Transport interface {
	// Workers returns the stable identities dispatches are addressed to.
	Workers() []string

	// Dispatch sends one task to the named worker and awaits its result.
	// Returns ErrTerminated after Terminate, and a wrapped context error
	// when ctx expires before the result arrives.
	Dispatch(ctx context.Context, worker string, task *Task) (*Result, error)

	// Terminate sends the detach frame to every worker, exactly once per
	// worker across the transport's lifetime.
	Terminate(ctx context.Context) error

	// Close releases the transport's broker resources. The underlying NATS
	// connection is owned by the caller and stays open.
	Close() error
}

// newTransport builds the transport selected by the configuration.
func newTransport(nc *nats.Conn, cfg *morsel.DistributedConfig, logger types.Logger) (Transport, error) {
	switch cfg.Backend {
	case types.BackendMessagePassing:
		return newMailboxTransport(nc, cfg, logger)
	case types.BackendRemoteCall:
		return newRemoteCallTransport(nc, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownBackend, int(cfg.Backend))
	}
}

// Rank-addressed mailbox subjects. Rank 0 is the coordinator; workers
// occupy ranks 1..participants-1.

// rankTaskSubject is the mailbox a worker rank receives tasks on.
func rankTaskSubject(prefix string, rank int) string {
	return fmt.Sprintf("%s.rank.%d.task", prefix, rank)
}

// rankControlSubject is the mailbox a worker rank receives control frames on.
func rankControlSubject(prefix string, rank int) string {
	return fmt.Sprintf("%s.rank.%d.ctl", prefix, rank)
}

// resultSubject is the coordinator mailbox every worker publishes results to.
func resultSubject(prefix string) string {
	return fmt.Sprintf("%s.rank.0.result", prefix)
}

// rankLabel is the worker identity the mailbox transport exposes.
func rankLabel(rank int) string {
	return fmt.Sprintf("rank-%d", rank)
}

// addressControlSubject is the control-plane subject of a remote-call
// worker service address.
func addressControlSubject(address string) string {
	return address + ".ctl"
}
