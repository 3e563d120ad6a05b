package buffer

import (
	"sync/atomic"

	"github.com/arloliu/morsel/types"
)

// Buffer is a reference-counted byte buffer owned by an Allocator.
//
// A Buffer starts with a count of one, held by the caller of Allocate.
// Retain and Release are safe for concurrent use; the storage is reclaimed
// exactly once, on the Release that drops the count to zero.
type Buffer struct {
	alloc *Allocator
	id    uint64
	refs  atomic.Int64
	data  []byte
}

// Bytes returns the buffer's storage.
//
// The returned slice is valid until the buffer's final release. Callers
// must hold a reference while reading or writing it.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the buffer's storage size in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Refs returns the current reference count.
//
// The value is a snapshot; concurrent retains and releases may change it
// immediately. Intended for tests and diagnostics.
func (b *Buffer) Refs() int64 {
	return b.refs.Load()
}

// Retain increments the reference count for a new consumer.
//
// Retaining a buffer after its final release is an over-release class
// error: the storage is already gone.
//
// Returns:
//   - error: ErrBufferOverRelease when the buffer was already freed, nil otherwise
func (b *Buffer) Retain() error {
	if !b.alloc.counting {
		return nil
	}

	for {
		cur := b.refs.Load()
		if cur <= 0 {
			b.alloc.noteOverRelease()
			return types.ErrBufferOverRelease
		}
		if b.refs.CompareAndSwap(cur, cur+1) {
			return nil
		}
	}
}

// Release decrements the reference count, reclaiming the storage when the
// count reaches zero.
//
// Each consumer must release exactly once. Releasing more times than
// retained returns ErrBufferOverRelease; the count never goes negative and
// the storage is never reclaimed twice.
//
// Returns:
//   - error: ErrBufferOverRelease on a release past zero, nil otherwise
func (b *Buffer) Release() error {
	if !b.alloc.counting {
		return nil
	}

	for {
		cur := b.refs.Load()
		if cur <= 0 {
			b.alloc.noteOverRelease()
			return types.ErrBufferOverRelease
		}
		if b.refs.CompareAndSwap(cur, cur-1) {
			if cur == 1 {
				// Exclusive: only one releaser wins the 1 -> 0 transition.
				b.alloc.free(b)
				b.data = nil
			}

			return nil
		}
	}
}

// Freed reports whether the buffer's storage has been reclaimed.
func (b *Buffer) Freed() bool {
	return b.alloc.counting && b.refs.Load() == 0
}
