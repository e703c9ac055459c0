package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics records what the outbox publisher did with each row.
type OutboxMetrics struct {
	published    *prometheus.CounterVec
	failures     *prometheus.CounterVec
	deadLettered *prometheus.CounterVec
	deferred     *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events delivered to Pub/Sub.",
	}, []string{"event_type"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Retryable publish failures.",
	}, []string{"event_type"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_dead_lettered_total",
		Help: "Outbox events moved to the DLQ, by reason.",
	}, []string{"event_type", "reason"})
	deferred := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_deferred_total",
		Help: "Outbox events held back because an earlier event of the same aggregate failed.",
	}, []string{"event_type"})
	reg.MustRegister(published, failures, deadLettered, deferred)
	return &OutboxMetrics{published: published, failures: failures, deadLettered: deadLettered, deferred: deferred}
}

func (m *OutboxMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncFailure(eventType string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncDeadLettered(eventType, reason string) {
	if m == nil || m.deadLettered == nil {
		return
	}
	m.deadLettered.WithLabelValues(normalizeLabel(eventType), normalizeLabel(reason)).Inc()
}

func (m *OutboxMetrics) IncDeferred(eventType string) {
	if m == nil || m.deferred == nil {
		return
	}
	m.deferred.WithLabelValues(normalizeLabel(eventType)).Inc()
}
