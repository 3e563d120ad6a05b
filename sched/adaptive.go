package sched

import (
	"sync"
	"time"

	"github.com/arloliu/morsel/types"
)

const (
	// defaultStaticFraction is the share of the work item PerformanceLoop
	// issues before switching to feedback sizing.
	defaultStaticFraction = 0.5

	// ewmaAlpha weights new throughput observations against history.
	ewmaAlpha = 0.4

	// minSpeedFactor and maxSpeedFactor bound the feedback correction so a
	// single noisy measurement cannot collapse or explode chunk sizes.
	minSpeedFactor = 0.5
	maxSpeedFactor = 2.0
)

// PerformanceLoop implements performance loop scheduling: a static fraction
// of the work item is issued in even per-worker chunks, and the remainder is
// issued guided-style with sizes corrected by measured worker throughput.
//
// Throughput is tracked as an exponentially weighted moving average per
// worker; the correction factor is the ratio of the current mean rate to
// the first observed rate, bounded to [0.5, 2]. When workers slow down the
// factor drops and chunks shrink, finishing the tail in finer steps.
//
// PerformanceLoop requires execution feedback: issuers must call Observe for
// every finished chunk, and should pace production so observations can
// influence later sizing decisions.
type PerformanceLoop struct {
	workers    int
	minSize    uint64
	staticSize uint64
	staticLeft uint64

	mu       sync.Mutex
	rates    []float64
	baseline float64
}

var _ FeedbackPolicy = (*PerformanceLoop)(nil)

// NewPerformanceLoop creates a performance loop policy.
//
// Parameters:
//   - total: Total rows of the work item
//   - workers: Number of workers in the session
//   - minSize: Minimum chunk size
//   - fraction: Static fraction in (0, 1]; out-of-range values fall back to
//     the default of 0.5
func NewPerformanceLoop(total uint64, workers int, minSize uint64, fraction float64) *PerformanceLoop {
	if fraction <= 0 || fraction > 1 {
		fraction = defaultStaticFraction
	}
	staticRows := uint64(float64(total) * fraction)

	return &PerformanceLoop{
		workers:    workers,
		minSize:    minSize,
		staticSize: ceilDiv(staticRows, uint64(workers)),
		staticLeft: staticRows,
		rates:      make([]float64, workers),
	}
}

// Scheme returns types.SchemePerformanceLoop.
func (p *PerformanceLoop) Scheme() types.Scheme {
	return types.SchemePerformanceLoop
}

// NextChunkSize returns the next chunk size: the even static share while the
// static fraction lasts, then the feedback-corrected guided size.
func (p *PerformanceLoop) NextChunkSize(remaining uint64) uint64 {
	if remaining == 0 {
		return 0
	}

	if p.staticLeft > 0 {
		size := p.staticSize
		if size > p.staticLeft {
			size = p.staticLeft
		}
		size = clamp(size, p.minSize, remaining)
		if size >= p.staticLeft {
			p.staticLeft = 0
		} else {
			p.staticLeft -= size
		}

		return size
	}

	guided := ceilDiv(remaining, uint64(p.workers))
	size := uint64(float64(guided) * p.speedFactor())

	return clamp(size, p.minSize, remaining)
}

// Observe records a finished chunk for throughput tracking. Safe for
// concurrent use.
func (p *PerformanceLoop) Observe(worker int, size uint64, elapsed time.Duration) {
	if worker < 0 || worker >= p.workers || size == 0 || elapsed <= 0 {
		return
	}
	rate := float64(size) / elapsed.Seconds()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.baseline == 0 {
		p.baseline = rate
	}
	if p.rates[worker] == 0 {
		p.rates[worker] = rate
	} else {
		p.rates[worker] = ewmaAlpha*rate + (1-ewmaAlpha)*p.rates[worker]
	}
}

// speedFactor returns the bounded ratio of the current mean worker rate to
// the baseline rate, or 1 before any observation arrived.
func (p *PerformanceLoop) speedFactor() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.baseline == 0 {
		return 1
	}

	var sum float64
	var n int
	for _, r := range p.rates {
		if r > 0 {
			sum += r
			n++
		}
	}
	if n == 0 {
		return 1
	}

	factor := (sum / float64(n)) / p.baseline
	if factor < minSpeedFactor {
		return minSpeedFactor
	}
	if factor > maxSpeedFactor {
		return maxSpeedFactor
	}

	return factor
}
