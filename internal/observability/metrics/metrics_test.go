package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWorkerMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newWorkerMetrics(registry)

	m.IncTick()
	m.IncTick()
	m.IncTickError()
	m.IncNotified()
	m.IncSkipped("not_entitled")
	m.IncSkipped("not_entitled")
	m.IncSkipped("read_during_tick")
	m.ObserveTick(50 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tickRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tickErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notified))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.skipped.WithLabelValues("not_entitled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped.WithLabelValues("read_during_tick")))
}

func TestNotificationMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newNotificationMetrics(registry)

	m.IncDelivered("realtime")
	m.IncDelivered("email")
	m.IncDelivered("email")
	m.IncFailed("email")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.delivered.WithLabelValues("realtime")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.delivered.WithLabelValues("email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed.WithLabelValues("email")))
}

func TestSingletonsAreStable(t *testing.T) {
	assert.Same(t, Worker(), Worker())
	assert.Same(t, Notifications(), Notifications())
}
