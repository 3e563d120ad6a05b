package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/morsel/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Registration is lazy: instruments are created and registered on the first
// recorded observation, so constructing the collector is cheap and safe even
// when metrics end up unused.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	// Scheduler metrics
	sessionsStarted *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
	chunksIssued    *prometheus.CounterVec
	chunkSizes      *prometheus.HistogramVec
	chunkDuration   *prometheus.HistogramVec
	rowsProcessed   *prometheus.CounterVec

	// Steal metrics
	steals       *prometheus.CounterVec
	failedProbes *prometheus.CounterVec

	// Dispatch metrics
	dispatches      *prometheus.CounterVec
	dispatchLatency *prometheus.HistogramVec
	terminations    prometheus.Counter

	// Buffer metrics
	buffersAllocated prometheus.Counter
	buffersFreed     prometheus.Counter
	bufferLiveBytes  prometheus.Gauge
	bufferOverRel    prometheus.Counter
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "morsel" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "morsel"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.sessionsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "sessions_started_total",
			Help:      "Total scheduling sessions started by scheme.",
		}, []string{"scheme"})

		p.sessionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "session_duration_seconds",
			Help:      "Wall-clock duration of completed sessions in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~4.4m
		}, []string{"scheme", "success"})

		p.chunksIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "chunks_issued_total",
			Help:      "Total chunks issued by the scheduling scheme.",
		}, []string{"scheme"})

		p.chunkSizes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "chunk_size_rows",
			Help:      "Distribution of issued chunk sizes in rows.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12), // 1 .. ~4M rows
		}, []string{"scheme"})

		p.chunkDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "chunk_duration_seconds",
			Help:      "Per-chunk processing time in seconds by worker.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us .. ~26s
		}, []string{"worker"})

		p.rowsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "rows_processed_total",
			Help:      "Total rows processed by worker.",
		}, []string{"worker"})

		p.steals = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "queue",
			Name:      "steals_total",
			Help:      "Total successful steals by thief and victim queue.",
		}, []string{"thief", "victim"})

		p.failedProbes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "queue",
			Name:      "failed_probes_total",
			Help:      "Total steal probes that found the victim queue empty.",
		}, []string{"thief"})

		p.dispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "distributed",
			Name:      "dispatches_total",
			Help:      "Total remote task dispatches by worker and outcome.",
		}, []string{"worker", "success"})

		p.dispatchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "distributed",
			Name:      "dispatch_latency_seconds",
			Help:      "Round-trip latency of remote task dispatches in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 12), // 1ms .. ~4m
		}, []string{"worker"})

		p.terminations = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "distributed",
			Name:      "termination_messages_total",
			Help:      "Total termination messages fanned out to remote workers.",
		})

		p.buffersAllocated = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "buffer",
			Name:      "allocated_total",
			Help:      "Total reference-counted buffers allocated.",
		})

		p.buffersFreed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "buffer",
			Name:      "freed_total",
			Help:      "Total buffers freed on their final release.",
		})

		p.bufferLiveBytes = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "buffer",
			Name:      "live_bytes",
			Help:      "Bytes currently held by live buffers.",
		})

		p.bufferOverRel = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "buffer",
			Name:      "over_releases_total",
			Help:      "Total detected releases past a zero reference count.",
		})

		p.reg.MustRegister(p.sessionsStarted)
		p.reg.MustRegister(p.sessionDuration)
		p.reg.MustRegister(p.chunksIssued)
		p.reg.MustRegister(p.chunkSizes)
		p.reg.MustRegister(p.chunkDuration)
		p.reg.MustRegister(p.rowsProcessed)
		p.reg.MustRegister(p.steals)
		p.reg.MustRegister(p.failedProbes)
		p.reg.MustRegister(p.dispatches)
		p.reg.MustRegister(p.dispatchLatency)
		p.reg.MustRegister(p.terminations)
		p.reg.MustRegister(p.buffersAllocated)
		p.reg.MustRegister(p.buffersFreed)
		p.reg.MustRegister(p.bufferLiveBytes)
		p.reg.MustRegister(p.bufferOverRel)
	})
}

// SchedulerMetrics implementation

// RecordSessionStart records the start of a scheduling session.
func (p *PrometheusCollector) RecordSessionStart(scheme string, _ int, _ uint64) {
	p.ensureRegistered()
	p.sessionsStarted.WithLabelValues(scheme).Inc()
}

// RecordSessionDuration records the wall-clock duration of a completed session.
func (p *PrometheusCollector) RecordSessionDuration(scheme string, seconds float64, success bool) {
	p.ensureRegistered()
	p.sessionDuration.WithLabelValues(scheme, strconv.FormatBool(success)).Observe(seconds)
}

// RecordChunkIssued records one chunk issued by the scheduling scheme.
func (p *PrometheusCollector) RecordChunkIssued(scheme string, size uint64) {
	p.ensureRegistered()
	p.chunksIssued.WithLabelValues(scheme).Inc()
	p.chunkSizes.WithLabelValues(scheme).Observe(float64(size))
}

// RecordChunkProcessed records the execution of one chunk by a worker.
func (p *PrometheusCollector) RecordChunkProcessed(worker int, size uint64, seconds float64) {
	p.ensureRegistered()
	w := strconv.Itoa(worker)
	p.chunkDuration.WithLabelValues(w).Observe(seconds)
	p.rowsProcessed.WithLabelValues(w).Add(float64(size))
}

// StealMetrics implementation

// RecordSteal records a successful steal from another worker's queue.
func (p *PrometheusCollector) RecordSteal(thief, victim int) {
	p.ensureRegistered()
	p.steals.WithLabelValues(strconv.Itoa(thief), strconv.Itoa(victim)).Inc()
}

// RecordFailedProbe records a steal probe that found its victim empty.
func (p *PrometheusCollector) RecordFailedProbe(thief int) {
	p.ensureRegistered()
	p.failedProbes.WithLabelValues(strconv.Itoa(thief)).Inc()
}

// DispatchMetrics implementation

// RecordDispatch records one remote task dispatch round trip.
func (p *PrometheusCollector) RecordDispatch(worker string, seconds float64, success bool) {
	p.ensureRegistered()
	p.dispatches.WithLabelValues(worker, strconv.FormatBool(success)).Inc()
	p.dispatchLatency.WithLabelValues(worker).Observe(seconds)
}

// RecordTermination records the fan-out of termination messages to workers.
func (p *PrometheusCollector) RecordTermination(workers int) {
	p.ensureRegistered()
	p.terminations.Add(float64(workers))
}

// BufferMetrics implementation

// RecordBufferAllocated records a new buffer allocation.
func (p *PrometheusCollector) RecordBufferAllocated(bytes int) {
	p.ensureRegistered()
	p.buffersAllocated.Inc()
	p.bufferLiveBytes.Add(float64(bytes))
}

// RecordBufferFreed records a buffer whose reference count reached zero.
func (p *PrometheusCollector) RecordBufferFreed(bytes int) {
	p.ensureRegistered()
	p.buffersFreed.Inc()
	p.bufferLiveBytes.Sub(float64(bytes))
}

// RecordBufferOverRelease records a detected release past zero.
func (p *PrometheusCollector) RecordBufferOverRelease() {
	p.ensureRegistered()
	p.bufferOverRel.Inc()
}
