package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/morsel/internal/backoff"
	"github.com/arloliu/morsel/types"
)

// Pool owns the queues of one scheduling session and coordinates producers
// and consumers.
//
// The producer side enqueues chunks with Offer and finishes with
// CloseIntake. The consumer side repeatedly calls Next, which claims from
// the worker's home queue, steals from victims when the home queue is
// empty, blocks while the producer may still enqueue, and reports
// exhaustion once production is closed and every queue has drained.
type Pool struct {
	queues   []*Queue
	homeOf   []int
	groupOf  []int
	selector VictimSelector

	pending  atomic.Int64
	produced atomic.Bool

	claims       atomic.Uint64
	steals       atomic.Uint64
	failedProbes atomic.Uint64

	mu   sync.Mutex
	cond *sync.Cond

	retry   []*backoff.Jitter
	metrics types.MetricsCollector
}

// Grab is one unit of work handed to a worker by Pool.Next.
type Grab struct {
	// Chunk is the claimed or stolen chunk.
	Chunk types.Chunk

	// Victim is the queue the chunk was stolen from, or -1 when the chunk
	// came from the worker's home queue.
	Victim int
}

// Stats summarizes queue activity over a session.
type Stats struct {
	// Claims is the number of chunks taken from home queues.
	Claims uint64

	// Steals is the number of chunks taken from victim queues.
	Steals uint64

	// FailedProbes is the number of steal probes that found an empty victim.
	FailedProbes uint64
}

// Config shapes a Pool.
type Config struct {
	// Layout selects the queue topology.
	Layout types.QueueLayout

	// Workers is the number of consumers.
	Workers int

	// GroupOfWorker maps each worker index to its NUMA group id. When nil,
	// all workers share group 0.
	GroupOfWorker []int

	// Victim selects the steal probe ordering.
	Victim types.VictimSelection

	// Seed seeds the randomized victim selectors.
	Seed uint64

	// Metrics receives steal activity. May be nil.
	Metrics types.MetricsCollector
}

// NewPool creates the queue pool for one session.
func NewPool(cfg Config) *Pool {
	workers := max(cfg.Workers, 1)

	groupOfWorker := cfg.GroupOfWorker
	if len(groupOfWorker) != workers {
		groupOfWorker = make([]int, workers)
	}
	groups := 1
	for _, g := range groupOfWorker {
		if g+1 > groups {
			groups = g + 1
		}
	}

	var homeOf, groupOf []int
	switch cfg.Layout {
	case types.LayoutPerCPU:
		homeOf = make([]int, workers)
		groupOf = make([]int, workers)
		for w := range workers {
			homeOf[w] = w
			groupOf[w] = groupOfWorker[w]
		}
	case types.LayoutPerGroup:
		homeOf = make([]int, workers)
		groupOf = make([]int, groups)
		for w := range workers {
			homeOf[w] = groupOfWorker[w]
		}
		for q := range groups {
			groupOf[q] = q
		}
	default: // centralized
		homeOf = make([]int, workers)
		groupOf = []int{0}
	}

	queues := make([]*Queue, len(groupOf))
	for i := range queues {
		queues[i] = NewQueue()
	}

	p := &Pool{
		queues:   queues,
		homeOf:   homeOf,
		groupOf:  groupOf,
		selector: NewVictimSelector(cfg.Victim, groupOf, cfg.Seed),
		retry:    make([]*backoff.Jitter, workers),
		metrics:  cfg.Metrics,
	}
	for w := range workers {
		p.retry[w] = backoff.New(retryBase, retryCap, cfg.Seed+uint64(w)+1)
	}
	p.cond = sync.NewCond(&p.mu)

	return p
}

// Steal retry pacing: a failed full probe round with work still pending
// means workers are racing on the queue locks; back off briefly before the
// next round.
const (
	retryBase = 5 * time.Microsecond
	retryCap  = 500 * time.Microsecond
)

// NumQueues returns the number of queues in the pool.
func (p *Pool) NumQueues() int {
	return len(p.queues)
}

// HomeQueue returns the home queue index of a worker.
func (p *Pool) HomeQueue(worker int) int {
	if worker < 0 || worker >= len(p.homeOf) {
		return 0
	}

	return p.homeOf[worker]
}

// Pending returns the number of enqueued chunks not yet claimed or stolen.
func (p *Pool) Pending() int64 {
	return p.pending.Load()
}

// Offer enqueues a chunk on the given queue and wakes blocked consumers.
func (p *Pool) Offer(queue int, c types.Chunk) {
	p.queues[queue].Push(c)
	p.pending.Add(1)

	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}

// CloseIntake marks production complete. Idle consumers re-check for
// exhaustion and drain whatever remains.
func (p *Pool) CloseIntake() {
	p.produced.Store(true)

	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Wake unblocks all consumers so they can observe context cancellation.
func (p *Pool) Wake() {
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Next obtains the next chunk for a worker.
//
// The claim order is home queue first, then one steal round over the
// victims chosen by the selector. When no chunk is found and production is
// still open, Next blocks until new work arrives or the context is
// canceled.
//
// Parameters:
//   - ctx: Session context; cancellation aborts the wait
//   - worker: Consumer index in [0, Workers)
//
// Returns:
//   - Grab: Chunk and its provenance
//   - bool: false when the session is exhausted
//   - error: Context error when canceled, nil otherwise
func (p *Pool) Next(ctx context.Context, worker int) (Grab, bool, error) {
	home := p.homeOf[worker]

	for {
		if err := ctx.Err(); err != nil {
			return Grab{}, false, err
		}

		if c, ok := p.queues[home].TryClaim(); ok {
			p.pending.Add(-1)
			p.claims.Add(1)
			p.retry[worker].Reset()

			return Grab{Chunk: c, Victim: -1}, true, nil
		}

		for _, victim := range p.selector.Sequence(home) {
			if c, ok := p.queues[victim].TrySteal(); ok {
				p.pending.Add(-1)
				p.steals.Add(1)
				p.retry[worker].Reset()
				if p.metrics != nil {
					p.metrics.RecordSteal(home, victim)
				}

				return Grab{Chunk: c, Victim: victim}, true, nil
			}
			p.failedProbes.Add(1)
			if p.metrics != nil {
				p.metrics.RecordFailedProbe(home)
			}
		}

		if p.pending.Load() > 0 {
			// The round lost every race; work exists, so retry after a
			// short jittered pause instead of blocking.
			time.Sleep(p.retry[worker].Next())
			continue
		}

		p.mu.Lock()
		for p.pending.Load() == 0 && !p.produced.Load() && ctx.Err() == nil {
			p.cond.Wait()
		}
		exhausted := p.pending.Load() == 0 && p.produced.Load()
		p.mu.Unlock()

		if exhausted {
			return Grab{}, false, nil
		}
		p.retry[worker].Reset()
	}
}

// Stats returns the accumulated queue activity counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Claims:       p.claims.Load(),
		Steals:       p.steals.Load(),
		FailedProbes: p.failedProbes.Load(),
	}
}
