package buffer

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/morsel/internal/logging"
	"github.com/arloliu/morsel/internal/metrics"
	"github.com/arloliu/morsel/types"
)

// Allocator owns reference-counted buffer storage.
//
// All methods are safe for concurrent use. The allocator tracks every live
// buffer so leaks are observable at Close, and so disabling counting can
// pin buffers for the lifetime of the allocator.
type Allocator struct {
	counting bool
	logger   types.Logger
	metrics  types.BufferMetrics

	live   *xsync.Map[uint64, *Buffer]
	nextID atomic.Uint64
	closed atomic.Bool

	allocated    atomic.Uint64
	freed        atomic.Uint64
	overReleases atomic.Uint64
	liveBytes    atomic.Int64
}

// Stats is a snapshot of allocator activity.
type Stats struct {
	// Allocated is the total number of buffers handed out.
	Allocated uint64

	// Freed is the number of buffers reclaimed on their final release.
	Freed uint64

	// Live is the number of buffers not yet freed.
	Live uint64

	// LiveBytes is the total storage held by live buffers.
	LiveBytes int64

	// OverReleases is the number of detected releases past zero.
	OverReleases uint64
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithCounting enables or disables reference counting.
//
// With counting disabled the allocator pins every buffer until Close;
// Retain and Release become no-ops. Used for debugging and performance
// isolation.
//
// Parameters:
//   - enabled: false to disable reference counting (default true)
//
// Returns:
//   - Option: Functional option for New
func WithCounting(enabled bool) Option {
	return func(a *Allocator) {
		a.counting = enabled
	}
}

// WithLogger sets the allocator's logger.
//
// Parameters:
//   - log: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for New
func WithLogger(log types.Logger) Option {
	return func(a *Allocator) {
		a.logger = log
	}
}

// WithMetrics sets the collector that receives buffer lifecycle metrics.
//
// Parameters:
//   - m: BufferMetrics implementation
//
// Returns:
//   - Option: Functional option for New
func WithMetrics(m types.BufferMetrics) Option {
	return func(a *Allocator) {
		a.metrics = m
	}
}

// New creates an Allocator with reference counting enabled by default.
func New(opts ...Option) *Allocator {
	a := &Allocator{
		counting: true,
		logger:   logging.NewNop(),
		metrics:  metrics.NewNop(),
		live:     xsync.NewMap[uint64, *Buffer](),
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Allocate returns a zeroed buffer of n bytes with a reference count of one.
//
// Parameters:
//   - n: Storage size in bytes (n >= 0)
//
// Returns:
//   - *Buffer: New buffer holding the caller's reference
//   - error: ErrAllocatorClosed when the allocator was closed
func (a *Allocator) Allocate(n int) (*Buffer, error) {
	if a.closed.Load() {
		return nil, types.ErrAllocatorClosed
	}

	b := &Buffer{
		alloc: a,
		id:    a.nextID.Add(1),
		data:  make([]byte, n),
	}
	b.refs.Store(1)

	a.live.Store(b.id, b)
	a.allocated.Add(1)
	a.liveBytes.Add(int64(n))
	a.metrics.RecordBufferAllocated(n)

	return b, nil
}

// FromBytes allocates a buffer holding a copy of p.
//
// Parameters:
//   - p: Bytes to copy into the new buffer
//
// Returns:
//   - *Buffer: New buffer holding the caller's reference
//   - error: ErrAllocatorClosed when the allocator was closed
func (a *Allocator) FromBytes(p []byte) (*Buffer, error) {
	b, err := a.Allocate(len(p))
	if err != nil {
		return nil, err
	}
	copy(b.data, p)

	return b, nil
}

// Stats returns a snapshot of allocator activity.
func (a *Allocator) Stats() Stats {
	live := uint64(0)
	a.live.Range(func(uint64, *Buffer) bool {
		live++
		return true
	})

	return Stats{
		Allocated:    a.allocated.Load(),
		Freed:        a.freed.Load(),
		Live:         live,
		LiveBytes:    a.liveBytes.Load(),
		OverReleases: a.overReleases.Load(),
	}
}

// Close stops the allocator and drops pinned buffers.
//
// With counting enabled, buffers still live at close are reported as leaks
// and logged; their storage remains valid for holders of outstanding
// references. Close is idempotent.
func (a *Allocator) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}

	leaked := 0
	a.live.Range(func(id uint64, b *Buffer) bool {
		if a.counting && b.refs.Load() > 0 {
			leaked++
		}
		a.live.Delete(id)

		return true
	})
	if leaked > 0 {
		a.logger.Warn("allocator closed with live buffers", "leaked", leaked)
	}

	return nil
}

// free reclaims accounting for a buffer whose count reached zero.
// Called exactly once per buffer, by the releaser that won the 1 -> 0
// transition.
func (a *Allocator) free(b *Buffer) {
	a.live.Delete(b.id)
	a.freed.Add(1)
	a.liveBytes.Add(-int64(len(b.data)))
	a.metrics.RecordBufferFreed(len(b.data))
}

// noteOverRelease records a detected release past zero.
func (a *Allocator) noteOverRelease() {
	a.overReleases.Add(1)
	a.metrics.RecordBufferOverRelease()
	a.logger.Error("buffer released past zero reference count")
}
