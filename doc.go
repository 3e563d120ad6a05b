// Package morsel provides adaptive load partitioning for data-parallel
// pipelines, with work-stealing worker pools and distributed dispatch over
// NATS.
//
// Morsel splits the row range of an operation into chunks using classic
// self-scheduling schemes, deals the chunks onto queues, and processes them
// on a pool of workers that steal from each other when their own queues run
// dry. Chunk sizing, queue topology, victim selection and CPU pinning are
// all configurable, so the same session code scales from a laptop to a NUMA
// server to a cluster of NATS-connected workers.
//
// # Quick Start
//
// Basic usage with default settings:
//
//	import "github.com/arloliu/morsel"
//
//	cfg := morsel.DefaultConfig()
//	cfg.Scheme = morsel.SchemeGuided
//	cfg.QueueLayout = morsel.LayoutPerCPU
//
//	lp, err := morsel.NewPartitioner(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lp.Close()
//
//	item := morsel.WorkItem{Range: morsel.Range{End: uint64(len(rows))}}
//	stats, err := lp.Run(ctx, item, func(ctx context.Context, worker int, chunk morsel.Chunk) error {
//	    return kernel(rows[chunk.Range.Begin:chunk.Range.End])
//	})
//
// # Key Features
//
//   - Twelve Scheduling Schemes: from one static chunk per worker (STATIC) to
//     guided, trapezoid, factoring and probabilistic self-scheduling (GSS,
//     TSS, FAC2, PSS, ...)
//   - Work Stealing: idle workers probe victim queues instead of idling, with
//     sequential, random and NUMA-aware probe orders
//   - Queue Layouts: one shared queue, one queue per NUMA group, or one queue
//     per worker
//   - CPU Awareness: pool sizing from the physical topology, optional worker
//     pinning and hyperthread handling
//   - Typed Reductions: Reduce folds per-chunk partial results into a single
//     value without locks in the kernel
//   - Distributed Sessions: a coordinator dispatches chunks to NATS-connected
//     workers using request/reply calls or rank-addressed mailboxes
//
// # Architecture
//
// A Run call starts one session:
//
//	producer(scheme) → queues → workers (claim | steal) → ProcessFunc
//
// The producer sizes chunks with the configured scheme and deals them onto
// the queues; each worker claims from its home queue and steals from victims
// once the home queue is empty. The session ends when every chunk has been
// processed, a kernel fails, or the context is canceled. The partitioner
// itself moves between IDLE, RUNNING and CLOSED, and can run any number of
// sessions sequentially.
//
// # Advanced Usage
//
// Distributed execution over NATS:
//
//	import (
//	    "github.com/arloliu/morsel"
//	    "github.com/arloliu/morsel/distributed"
//	)
//
//	cfg := morsel.DefaultConfig()
//	cfg.Scheme = morsel.SchemeGuided
//	cfg.Distributed.Backend = morsel.BackendMessagePassing
//	cfg.Distributed.Participants = 3
//
//	// Ranks 1..N-1 serve tasks; rank 0 coordinates.
//	w, err := distributed.NewWorker(&cfg, natsConn, rank, handleTask)
//	go w.Serve(ctx)
//
//	coord, err := distributed.NewCoordinator(&cfg, natsConn)
//	results, err := coord.Run(ctx, item, payload)
//
// See the examples/ directory for complete working examples.
package morsel
