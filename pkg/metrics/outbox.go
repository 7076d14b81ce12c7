package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics counts publisher outcomes per event type.
type OutboxMetrics struct {
	published    *prometheus.CounterVec
	failed       *prometheus.CounterVec
	deadLettered *prometheus.CounterVec
}

// NewOutboxMetrics registers the outbox publisher counters.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events delivered to Pub/Sub.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Retryable outbox publish failures.",
	}, []string{"event_type"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_dead_lettered_total",
		Help: "Outbox events moved to the DLQ.",
	}, []string{"event_type", "reason"})
	reg.MustRegister(published, failed, deadLettered)
	return &OutboxMetrics{published: published, failed: failed, deadLettered: deadLettered}
}

func (o *OutboxMetrics) IncPublished(eventType string) {
	if o == nil || o.published == nil {
		return
	}
	o.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (o *OutboxMetrics) IncFailed(eventType string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (o *OutboxMetrics) IncDeadLettered(eventType, reason string) {
	if o == nil || o.deadLettered == nil {
		return
	}
	o.deadLettered.WithLabelValues(normalizeLabel(eventType), normalizeLabel(reason)).Inc()
}

// DeadLetteredCounter exposes the DLQ counter for assertions.
func (o *OutboxMetrics) DeadLetteredCounter() *prometheus.CounterVec {
	return o.deadLettered
}
