package morsel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/morsel/types"
)

func traceEvent(seq uint64) types.TraceEvent {
	return types.TraceEvent{
		Kind:   types.TraceEnqueue,
		Seq:    seq,
		Range:  types.Range{Begin: seq * 10, End: seq*10 + 10},
		Worker: -1,
		Queue:  int(seq % 4), //nolint:gosec
		Victim: -1,
		At:     time.Now(),
	}
}

func TestTraceRing_RecordAndEvents(t *testing.T) {
	t.Parallel()

	ring := NewTraceRing(4)
	require.Empty(t, ring.Events())
	require.Zero(t, ring.Total())

	for seq := uint64(0); seq < 3; seq++ {
		ring.Record(traceEvent(seq))
	}

	events := ring.Events()
	require.Len(t, events, 3)
	for i, ev := range events {
		require.Equal(t, uint64(i), ev.Seq)
	}
	require.Equal(t, uint64(3), ring.Total())
}

func TestTraceRing_WraparoundKeepsNewest(t *testing.T) {
	t.Parallel()

	ring := NewTraceRing(4)
	for seq := uint64(0); seq < 10; seq++ {
		ring.Record(traceEvent(seq))
	}

	events := ring.Events()
	require.Len(t, events, 4)

	// Oldest first, so a full ring holds the trailing window of the stream.
	for i, ev := range events {
		require.Equal(t, uint64(6+i), ev.Seq)
	}

	require.Equal(t, uint64(10), ring.Total())
}

func TestTraceRing_Reset(t *testing.T) {
	t.Parallel()

	ring := NewTraceRing(2)
	ring.Record(traceEvent(0))
	ring.Record(traceEvent(1))
	ring.Record(traceEvent(2))

	ring.Reset()
	require.Empty(t, ring.Events())
	require.Zero(t, ring.Total())

	ring.Record(traceEvent(7))
	events := ring.Events()
	require.Len(t, events, 1)
	require.Equal(t, uint64(7), events[0].Seq)
	require.Equal(t, uint64(1), ring.Total())
}

func TestTraceRing_MinimumCapacity(t *testing.T) {
	t.Parallel()

	for _, capacity := range []int{0, -3} {
		ring := NewTraceRing(capacity)
		ring.Record(traceEvent(0))
		ring.Record(traceEvent(1))

		events := ring.Events()
		require.Len(t, events, 1)
		require.Equal(t, uint64(1), events[0].Seq)
		require.Equal(t, uint64(2), ring.Total())
	}
}

func TestTraceRing_ConcurrentRecord(t *testing.T) {
	t.Parallel()

	const (
		goroutines = 8
		perWorker  = 200
	)

	ring := NewTraceRing(64)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ring.Record(traceEvent(uint64(g*perWorker + i))) //nolint:gosec
			}
		}(g)
	}
	wg.Wait()

	require.Equal(t, uint64(goroutines*perWorker), ring.Total())
	require.Len(t, ring.Events(), 64)
}
