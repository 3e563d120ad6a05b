package queue

import (
	"sync"

	"github.com/arloliu/morsel/types"
)

// Queue is a mutex-protected deque of chunks.
//
// The owning worker claims from the front, preserving the issue order the
// producer chose; thieves steal from the back, taking the chunks the owner
// would reach last. Both operations are atomic under the queue lock, so a
// chunk is handed out exactly once.
type Queue struct {
	mu     sync.Mutex
	chunks []types.Chunk
	head   int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a chunk to the back of the queue.
func (q *Queue) Push(c types.Chunk) {
	q.mu.Lock()
	q.chunks = append(q.chunks, c)
	q.mu.Unlock()
}

// TryClaim removes and returns the front chunk.
//
// Returns:
//   - types.Chunk: Claimed chunk (zero value when empty)
//   - bool: false when the queue is empty
func (q *Queue) TryClaim() (types.Chunk, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.chunks) {
		return types.Chunk{}, false
	}
	c := q.chunks[q.head]
	q.head++
	if q.head == len(q.chunks) {
		q.chunks = q.chunks[:0]
		q.head = 0
	}

	return c, true
}

// TrySteal removes and returns the back chunk.
//
// Returns:
//   - types.Chunk: Stolen chunk (zero value when empty)
//   - bool: false when the queue is empty
func (q *Queue) TrySteal() (types.Chunk, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.chunks) {
		return types.Chunk{}, false
	}
	last := len(q.chunks) - 1
	c := q.chunks[last]
	q.chunks = q.chunks[:last]
	if q.head == len(q.chunks) {
		q.chunks = q.chunks[:0]
		q.head = 0
	}

	return c, true
}

// Len returns the number of queued chunks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.chunks) - q.head
}
