package distributed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/morsel"
	"github.com/arloliu/morsel/types"
)

// remoteCallTransport implements the remote-call backend: each dispatch is
// one NATS request/reply against a configured worker service address, and
// termination is one control request per address.
type remoteCallTransport struct {
	nc        *nats.Conn
	addresses []string
	logger    types.Logger

	terminated atomic.Bool
	closed     atomic.Bool
}

func newRemoteCallTransport(nc *nats.Conn, cfg *morsel.DistributedConfig, logger types.Logger) (*remoteCallTransport, error) {
	if len(cfg.WorkerAddresses) == 0 {
		return nil, types.ErrNoWorkerAddresses
	}

	addresses := make([]string, len(cfg.WorkerAddresses))
	copy(addresses, cfg.WorkerAddresses)

	return &remoteCallTransport{
		nc:        nc,
		addresses: addresses,
		logger:    logger,
	}, nil
}

// Workers returns the configured worker service addresses.
func (t *remoteCallTransport) Workers() []string {
	return t.addresses
}

// Dispatch issues one request to the worker's service address and decodes
// the reply.
func (t *remoteCallTransport) Dispatch(ctx context.Context, worker string, task *Task) (*Result, error) {
	if t.terminated.Load() || t.closed.Load() {
		return nil, types.ErrTerminated
	}

	data, err := EncodeTask(task)
	if err != nil {
		return nil, err
	}

	msg, err := t.nc.RequestWithContext(ctx, worker, data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("%w: no worker serving %s", types.ErrBackendUnavailable, worker)
		}

		return nil, fmt.Errorf("%w: calling %s: %w", types.ErrRemoteExecution, worker, err)
	}

	res, err := DecodeResult(msg.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: from %s: %w", types.ErrRemoteExecution, worker, err)
	}

	return res, nil
}

// Terminate issues one control request per worker address, awaiting each
// worker's acknowledgement. Runs once across the transport's lifetime.
func (t *remoteCallTransport) Terminate(ctx context.Context) error {
	if !t.terminated.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	for _, address := range t.addresses {
		if _, err := t.nc.RequestWithContext(ctx, addressControlSubject(address), terminateFrame); err != nil {
			// Keep detaching the remaining workers; the session is over
			// either way.
			t.logger.Warn("terminate request failed", "address", address, "error", err)
			errs = append(errs, fmt.Errorf("terminating %s: %w", address, err))
		}
	}

	return errors.Join(errs...)
}

// Close marks the transport closed. Request/reply holds no subscriptions.
func (t *remoteCallTransport) Close() error {
	t.closed.Store(true)
	return nil
}
