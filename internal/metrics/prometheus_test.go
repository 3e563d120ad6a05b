package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/morsel/types"
)

func TestNewPrometheus_Defaults(t *testing.T) {
	c := NewPrometheus(nil, "")

	require.NotNil(t, c.reg)
	require.Equal(t, "morsel", c.namespace)
}

func TestPrometheusCollectorImplementsMetricsCollector(_ *testing.T) {
	var _ types.MetricsCollector = (*PrometheusCollector)(nil)
}

func TestPrometheusCollector_Records(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := NewPrometheus(reg, "morseltest")

	c.RecordSessionStart("GSS", 4, 1000)
	c.RecordSessionDuration("GSS", 0.25, true)
	c.RecordChunkIssued("GSS", 128)
	c.RecordChunkProcessed(1, 128, 0.002)
	c.RecordSteal(2, 0)
	c.RecordFailedProbe(3)
	c.RecordDispatch("rank-1", 0.01, true)
	c.RecordDispatch("rank-1", 0.02, false)
	c.RecordTermination(2)
	c.RecordBufferAllocated(4096)
	c.RecordBufferFreed(4096)
	c.RecordBufferOverRelease()

	require.Equal(t, 1.0, testutil.ToFloat64(c.sessionsStarted.WithLabelValues("GSS")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.chunksIssued.WithLabelValues("GSS")))
	require.Equal(t, 128.0, testutil.ToFloat64(c.rowsProcessed.WithLabelValues("1")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.steals.WithLabelValues("2", "0")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.failedProbes.WithLabelValues("3")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.dispatches.WithLabelValues("rank-1", "true")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.dispatches.WithLabelValues("rank-1", "false")))
	require.Equal(t, 2.0, testutil.ToFloat64(c.terminations))
	require.Equal(t, 1.0, testutil.ToFloat64(c.buffersAllocated))
	require.Equal(t, 1.0, testutil.ToFloat64(c.buffersFreed))
	require.Equal(t, 0.0, testutil.ToFloat64(c.bufferLiveBytes))
	require.Equal(t, 1.0, testutil.ToFloat64(c.bufferOverRel))

	// Histogram series exist under the configured namespace.
	n, err := testutil.GatherAndCount(reg,
		"morseltest_scheduler_session_duration_seconds",
		"morseltest_scheduler_chunk_size_rows",
		"morseltest_scheduler_chunk_duration_seconds",
		"morseltest_distributed_dispatch_latency_seconds",
	)
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestPrometheusCollector_LazyRegistration(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := NewPrometheus(reg, "morseltest")

	// Nothing is registered until the first observation.
	families, err := reg.Gather()
	require.NoError(t, err)
	require.Empty(t, families)

	c.RecordSessionStart("STATIC", 2, 10)

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Positive(t, n)
}
