// Package buffer provides reference-counted storage shared between the
// scheduler runtime and the kernels it invokes.
//
// An Allocator hands out Buffers with an initial reference count of one.
// Every additional consumer retains the buffer before use and releases it
// exactly once when done; the storage is reclaimed on the release that
// drops the count from one to zero, never earlier. Releasing past zero is
// a detectable programming error (ErrBufferOverRelease), not a silent
// no-op, and the count never goes negative.
//
// Counting can be disabled for debugging or performance isolation, in
// which case buffers are pinned by the allocator and persist until the
// allocator is closed.
package buffer
