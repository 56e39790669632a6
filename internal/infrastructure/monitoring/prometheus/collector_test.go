package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{
		Namespace: "erisk",
		Subsystem: "test",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollectorRequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeConfigInvalid))
}

func TestRegisterCounter(t *testing.T) {
	c := newTestCollector(t)
	counter := c.RegisterCounter("events_total", "Test events", "kind")
	counter.WithLabelValues("created").Inc()
	counter.WithLabelValues("created").Add(2)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "erisk_test_events_total")
	assert.Contains(t, output, `kind="created"`)
	assert.Contains(t, output, "3")
}

func TestRegisterGauge(t *testing.T) {
	c := newTestCollector(t)
	gauge := c.RegisterGauge("queue_depth", "Test depth", "queue")
	gauge.WithLabelValues("scoring").Set(5)
	gauge.WithLabelValues("scoring").Dec()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "erisk_test_queue_depth")
	assert.Contains(t, output, "4")
}

func TestRegisterHistogram(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("latency_seconds", "Test latency", []float64{0.1, 1, 10}, "op")
	hist.WithLabelValues("get").Observe(0.5)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "erisk_test_latency_seconds_bucket")
	assert.Contains(t, output, "erisk_test_latency_seconds_count")
}

func TestDuplicateRegistrationReturnsSameMetric(t *testing.T) {
	c := newTestCollector(t)
	first := c.RegisterCounter("dup_total", "Duplicate", "kind")
	second := c.RegisterCounter("dup_total", "Duplicate", "kind")

	first.WithLabelValues("a").Inc()
	second.WithLabelValues("a").Inc()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "erisk_test_dup_total")
	assert.Contains(t, output, "2")
}

func TestConflictingRegistrationFallsBackToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("conflict_metric", "As counter")

	// Same name, different type. Falls back to a no-op instead of panicking.
	gauge := c.RegisterGauge("conflict_metric", "As gauge")
	assert.NotPanics(t, func() {
		gauge.WithLabelValues().Set(1)
	})
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("timed_seconds", "Timed", nil, "op")

	timer := NewTimer(hist.WithLabelValues("work"))
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDuration()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "erisk_test_timed_seconds_count")
}

func TestTimerNilHistogram(t *testing.T) {
	timer := NewTimer(nil)
	assert.NotPanics(t, timer.ObserveDuration)
}
