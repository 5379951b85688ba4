package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics captures unread-reminder worker health signals.
type WorkerMetrics struct {
	tickRuns     prometheus.Counter
	tickErrors   prometheus.Counter
	tickDuration prometheus.Histogram
	notified     prometheus.Counter
	skipped      *prometheus.CounterVec
}

var (
	workerOnce    sync.Once
	workerMetrics *WorkerMetrics
)

// Worker returns the singleton worker metrics registry.
func Worker() *WorkerMetrics {
	workerOnce.Do(func() {
		workerMetrics = newWorkerMetrics(prometheus.DefaultRegisterer)
	})
	return workerMetrics
}

// ResetWorkerMetricsForTest resets the singleton for tests.
func ResetWorkerMetricsForTest() {
	workerOnce = sync.Once{}
	workerMetrics = nil
}

func newWorkerMetrics(registerer prometheus.Registerer) *WorkerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &WorkerMetrics{
		tickRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courier_alert_worker_ticks_total",
			Help: "Reminder worker tick executions.",
		}),
		tickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courier_alert_worker_tick_errors_total",
			Help: "Reminder worker ticks that failed at the batch level.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "courier_alert_worker_tick_duration_seconds",
			Help:    "Reminder worker tick duration.",
			Buckets: prometheus.DefBuckets,
		}),
		notified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courier_alert_worker_notified_total",
			Help: "Stale unread messages that produced a reminder.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_alert_worker_skipped_total",
			Help: "Stale unread messages skipped, by reason.",
		}, []string{"reason"}),
	}

	registerer.MustRegister(m.tickRuns, m.tickErrors, m.tickDuration, m.notified, m.skipped)
	return m
}

func (m *WorkerMetrics) IncTick() { m.tickRuns.Inc() }

func (m *WorkerMetrics) IncTickError() { m.tickErrors.Inc() }

func (m *WorkerMetrics) ObserveTick(d time.Duration) { m.tickDuration.Observe(d.Seconds()) }

func (m *WorkerMetrics) IncNotified() { m.notified.Inc() }

func (m *WorkerMetrics) IncSkipped(reason string) { m.skipped.WithLabelValues(reason).Inc() }
