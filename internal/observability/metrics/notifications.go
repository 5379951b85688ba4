// Package metrics exposes prometheus instruments for the notification
// pipeline and the unread-reminder worker.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics counts deliveries per channel (realtime, email).
type NotificationMetrics struct {
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

var (
	notificationOnce    sync.Once
	notificationMetrics *NotificationMetrics
)

// Notifications returns the singleton notification metrics registry.
func Notifications() *NotificationMetrics {
	notificationOnce.Do(func() {
		notificationMetrics = newNotificationMetrics(prometheus.DefaultRegisterer)
	})
	return notificationMetrics
}

// ResetNotificationMetricsForTest resets the singleton for tests.
func ResetNotificationMetricsForTest() {
	notificationOnce = sync.Once{}
	notificationMetrics = nil
}

func newNotificationMetrics(registerer prometheus.Registerer) *NotificationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &NotificationMetrics{
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_notifications_delivered_total",
			Help: "Notifications delivered, by channel.",
		}, []string{"channel"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_notifications_failed_total",
			Help: "Notification delivery failures, by channel.",
		}, []string{"channel"}),
	}

	registerer.MustRegister(m.delivered, m.failed)
	return m
}

func (m *NotificationMetrics) IncDelivered(channel string) {
	m.delivered.WithLabelValues(channel).Inc()
}

func (m *NotificationMetrics) IncFailed(channel string) {
	m.failed.WithLabelValues(channel).Inc()
}
