// Package queue provides the work queues backing a scheduling session.
//
// A session owns a Pool of one or more chunk queues, shaped by the
// configured layout: a single shared queue, one queue per NUMA group, or
// one queue per worker. The producer enqueues chunks round-robin across the
// queues (or pre-partitioned, one policy per queue); workers claim from the
// front of their home queue and steal from the back of victim queues chosen
// by the configured victim selector.
//
// Claim and steal are linearizable per queue: a chunk is consumed exactly
// once, by exactly one worker. Pool.Next blocks an idle worker only while
// the producer may still enqueue work; once production is closed and every
// queue is empty, all workers observe exhaustion and return.
package queue
