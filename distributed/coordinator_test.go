package distributed

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/morsel"
	morseltest "github.com/arloliu/morsel/testing"
	"github.com/arloliu/morsel/types"
)

func TestNewCoordinator_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewCoordinator(nil, nil)
		require.ErrorIs(t, err, types.ErrInvalidConfig)
	})

	t.Run("too few participants fails before broker contact", func(t *testing.T) {
		// A nil connection proves the participant check runs before any
		// transport is built.
		cfg := messagePassingConfig(1, "morsel-cv")
		_, err := NewCoordinator(&cfg, nil)
		require.ErrorIs(t, err, types.ErrParticipants)
	})

	t.Run("remote call requires addresses", func(t *testing.T) {
		cfg := morsel.TestConfig()
		cfg.Distributed.Backend = types.BackendRemoteCall
		cfg.Distributed.WorkerAddresses = nil
		_, err := NewCoordinator(&cfg, nil)
		require.ErrorIs(t, err, types.ErrNoWorkerAddresses)
	})

	t.Run("nil connection without transport", func(t *testing.T) {
		cfg := messagePassingConfig(2, "morsel-cv")
		_, err := NewCoordinator(&cfg, nil)
		require.ErrorIs(t, err, types.ErrNATSConnectionRequired)
	})
}

func TestCoordinator_MessagePassing_EndToEnd(t *testing.T) {
	ns, spy := morseltest.StartEmbeddedNATS(t)

	const (
		prefix       = "morsel-mp"
		participants = 3
		totalRows    = 10_000
	)

	// Count termination frames across all worker ranks.
	var terminations atomic.Int32
	_, err := spy.Subscribe(prefix+".rank.*.ctl", func(msg *nats.Msg) {
		if IsTerminate(msg.Data) {
			terminations.Add(1)
		}
	})
	require.NoError(t, err)

	payload := []byte("serialized-pipeline")
	handler := func(_ context.Context, task *Task) ([]byte, error) {
		if !bytes.Equal(task.Payload, payload) {
			return nil, errors.New("payload mismatch")
		}
		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, task.Range().Len())

		return out, nil
	}

	cfg := messagePassingConfig(participants, prefix)
	cfg.Scheme = types.SchemeGuided
	cfg.MinimumTaskSize = 256

	workers := make([]*Worker, 0, participants-1)
	serveErrs := make([]chan error, 0, participants-1)
	for rank := 1; rank < participants; rank++ {
		w, serveErr := startWorker(t, ns, cfg, rank, handler)
		workers = append(workers, w)
		serveErrs = append(serveErrs, serveErr)
	}
	// Two subscriptions per worker plus the control spy.
	waitForSubscriptions(t, ns, uint32(2*(participants-1)+1))

	coordConn := morseltest.ConnectEmbeddedNATS(t, ns)
	coord, err := NewCoordinator(&cfg, coordConn, WithLogger(morseltest.NewTestLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = coord.Close() })

	require.Equal(t, []string{"rank-1", "rank-2"}, coord.Workers())

	item := morsel.WorkItem{Range: types.Range{Begin: 0, End: totalRows}}
	results, err := coord.Run(context.Background(), item, payload)
	require.NoError(t, err)

	stats := coord.Stats()
	require.EqualValues(t, totalRows, stats.Rows)
	require.EqualValues(t, len(results), stats.Chunks)

	// Results come back in issue order and tile the item exactly.
	var rows uint64
	for i, res := range results {
		require.EqualValues(t, i, res.Seq)
		require.Empty(t, res.Error)
		rows += binary.BigEndian.Uint64(res.Output)
	}
	require.EqualValues(t, totalRows, rows)

	// Every worker detaches cleanly after the termination fan-out.
	for i, serveErr := range serveErrs {
		require.NoError(t, awaitServe(t, serveErr))
		require.Equal(t, types.NodeTerminated, workers[i].State())
	}

	var processed uint64
	for _, w := range workers {
		processed += w.TasksProcessed()
	}
	require.EqualValues(t, stats.Chunks, processed)

	// Exactly one termination frame per worker, even with Close repeating
	// the shutdown path.
	require.NoError(t, coord.Close())
	require.Eventually(t, func() bool {
		return terminations.Load() == participants-1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, participants-1, terminations.Load())

	// The session is one-shot.
	_, err = coord.Run(context.Background(), item, payload)
	require.ErrorIs(t, err, types.ErrClosed)
}

func TestCoordinator_RemoteCall_EndToEnd(t *testing.T) {
	ns, spy := morseltest.StartEmbeddedNATS(t)

	const totalRows = 4096
	addresses := []string{"svc.morsel-rc.w1", "svc.morsel-rc.w2"}

	var terminations atomic.Int32
	_, err := spy.Subscribe("svc.morsel-rc.*.ctl", func(msg *nats.Msg) {
		if IsTerminate(msg.Data) {
			terminations.Add(1)
		}
	})
	require.NoError(t, err)

	cfg := remoteCallConfig(addresses...)
	cfg.Scheme = types.SchemeSelf
	cfg.MinimumTaskSize = 512

	workers := make([]*Worker, 0, len(addresses))
	serveErrs := make([]chan error, 0, len(addresses))
	for rank := 1; rank <= len(addresses); rank++ {
		w, serveErr := startWorker(t, ns, cfg, rank, echoHandler)
		workers = append(workers, w)
		serveErrs = append(serveErrs, serveErr)
	}
	waitForSubscriptions(t, ns, uint32(2*len(addresses)+1))

	coordConn := morseltest.ConnectEmbeddedNATS(t, ns)
	coord, err := NewCoordinator(&cfg, coordConn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = coord.Close() })

	require.Equal(t, addresses, coord.Workers())

	item := morsel.WorkItem{Range: types.Range{End: totalRows}}
	results, err := coord.Run(context.Background(), item, nil)
	require.NoError(t, err)

	// Pure self-scheduling issues fixed minimum-size tasks.
	require.Len(t, results, totalRows/512)

	var rows uint64
	for _, res := range results {
		require.Empty(t, res.Error)
		rows += binary.BigEndian.Uint64(res.Output)
	}
	require.EqualValues(t, totalRows, rows)

	for i, serveErr := range serveErrs {
		require.NoError(t, awaitServe(t, serveErr))
		require.Equal(t, types.NodeTerminated, workers[i].State())
	}

	require.Eventually(t, func() bool {
		return terminations.Load() == int32(len(addresses))
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, len(addresses), terminations.Load())
}

func TestCoordinator_WorkerFailureFailsSession(t *testing.T) {
	ns, _ := morseltest.StartEmbeddedNATS(t)

	handler := func(context.Context, *Task) ([]byte, error) {
		return nil, errors.New("scratch buffer exhausted")
	}

	cfg := messagePassingConfig(2, "morsel-mpfail")
	_, serveErr := startWorker(t, ns, cfg, 1, handler)
	waitForSubscriptions(t, ns, 2)

	coordConn := morseltest.ConnectEmbeddedNATS(t, ns)
	coord, err := NewCoordinator(&cfg, coordConn)
	require.NoError(t, err)

	item := morsel.WorkItem{Range: types.Range{End: 1000}}
	_, err = coord.Run(context.Background(), item, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, types.ErrRemoteExecution)
	require.ErrorIs(t, err, types.ErrLocalProcessing)
	require.Contains(t, err.Error(), "scratch buffer exhausted")

	// Closing after a failed session still detaches the worker.
	require.NoError(t, coord.Close())
	require.NoError(t, awaitServe(t, serveErr))
}

func TestCoordinator_BackendUnavailable(t *testing.T) {
	ns, _ := morseltest.StartEmbeddedNATS(t)

	// No worker serves this address.
	cfg := remoteCallConfig("svc.morsel-void.w1")
	coordConn := morseltest.ConnectEmbeddedNATS(t, ns)
	coord, err := NewCoordinator(&cfg, coordConn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = coord.Close() })

	item := morsel.WorkItem{Range: types.Range{End: 100}}
	_, err = coord.Run(context.Background(), item, nil)
	require.ErrorIs(t, err, types.ErrBackendUnavailable)
}

func TestCoordinator_CloseDetachesWorkersWithoutRun(t *testing.T) {
	ns, _ := morseltest.StartEmbeddedNATS(t)

	cfg := messagePassingConfig(2, "morsel-mpclose")
	_, serveErr := startWorker(t, ns, cfg, 1, echoHandler)
	waitForSubscriptions(t, ns, 2)

	coordConn := morseltest.ConnectEmbeddedNATS(t, ns)
	coord, err := NewCoordinator(&cfg, coordConn)
	require.NoError(t, err)

	// Abandoning the session still detaches the worker.
	require.NoError(t, coord.Close())
	require.NoError(t, awaitServe(t, serveErr))
}

// fakeTransport drives the coordinator without a broker.
type fakeTransport struct {
	workers []string

	mu         sync.Mutex
	perWorker  map[string]int
	terminates int
	closes     int
}

func newFakeTransport(workers ...string) *fakeTransport {
	return &fakeTransport{workers: workers, perWorker: make(map[string]int)}
}

func (f *fakeTransport) Workers() []string { return f.workers }

func (f *fakeTransport) Dispatch(_ context.Context, worker string, task *Task) (*Result, error) {
	f.mu.Lock()
	f.perWorker[worker]++
	f.mu.Unlock()

	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, task.End-task.Begin)

	return &Result{TaskID: task.TaskID, Seq: task.Seq, Output: out}, nil
}

func (f *fakeTransport) Terminate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminates++

	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++

	return nil
}

func TestCoordinator_WithTransport(t *testing.T) {
	transport := newFakeTransport("vw-0", "vw-1", "vw-2")

	cfg := messagePassingConfig(4, "morsel-fake")
	cfg.Scheme = types.SchemeStatic

	coord, err := NewCoordinator(&cfg, nil, WithTransport(transport))
	require.NoError(t, err)

	const totalRows = 999
	item := morsel.WorkItem{Range: types.Range{End: totalRows}}
	results, err := coord.Run(context.Background(), item, nil)
	require.NoError(t, err)

	// Static scheduling issues one chunk per worker.
	require.Len(t, results, 3)

	var rows uint64
	for i, res := range results {
		require.EqualValues(t, i, res.Seq)
		rows += binary.BigEndian.Uint64(res.Output)
	}
	require.EqualValues(t, totalRows, rows)

	transport.mu.Lock()
	dispatched := 0
	for _, n := range transport.perWorker {
		dispatched += n
	}
	terminates, closes := transport.terminates, transport.closes
	transport.mu.Unlock()

	require.Equal(t, 3, dispatched)
	require.Equal(t, 1, terminates)
	require.Equal(t, 1, closes)

	// Close after a completed session repeats nothing.
	require.NoError(t, coord.Close())
	transport.mu.Lock()
	require.Equal(t, 1, transport.terminates)
	require.Equal(t, 1, transport.closes)
	transport.mu.Unlock()
}
