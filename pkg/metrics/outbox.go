package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records publish attempts from the outbox dispatcher.
type OutboxMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewOutboxMetrics registers the dispatcher metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_publish_duration_seconds",
		Help:    "Duration of outbox publish attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_success",
		Help: "Successful outbox publishes.",
	}, []string{"event_type"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failure",
		Help: "Failed outbox publishes.",
	}, []string{"event_type"})
	reg.MustRegister(duration, success, failure)
	return &OutboxMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the publish duration for the event type.
func (m *OutboxMetrics) ObserveDuration(eventType string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(eventType)).Observe(elapsed.Seconds())
}

// IncSuccess increments the success counter for the event type.
func (m *OutboxMetrics) IncSuccess(eventType string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailure increments the failure counter for the event type.
func (m *OutboxMetrics) IncFailure(eventType string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(eventType)).Inc()
}
