// Package distributed spreads a scheduling session across remote workers
// coordinated over NATS.
//
// A session has one Coordinator and one or more Workers. The coordinator
// partitions the top-level work item with the configured scheduling scheme
// and dispatches each chunk as a serialized Task; a worker executes tasks
// through its registered TaskHandler on a bounded goroutine pool and
// replies with a Result. Chunk sizing, adaptive feedback and worker
// selection reuse the local partitioner: a remote worker is scheduled
// exactly like a local one whose "processing" is a round trip on the wire.
//
// Two backends implement the Transport capability:
//
//   - MESSAGE_PASSING: rank-addressed mailboxes. The coordinator is rank 0
//     and workers occupy ranks 1..participants-1; tasks are published to a
//     rank's task subject and results return on the coordinator's result
//     mailbox, correlated by task id.
//   - REMOTE_CALL: request-reply against configured worker service
//     addresses; each dispatch is one request awaiting one reply.
//
// Sessions end with an explicit termination fan-out: after all results are
// collected the coordinator sends exactly one single-byte detach frame per
// worker. A worker receiving the frame stops task intake, finishes its
// in-flight tasks and only then detaches. Remote failures are fatal to the
// session; there is no retry path.
package distributed
