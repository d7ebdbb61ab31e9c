package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records delivery outcomes and reconciliation timing.
type WebhookMetrics struct {
	deliveries *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	outbox     *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Webhook deliveries by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconcile_duration_seconds",
		Help:    "Duration of webhook reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outbox := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_total",
		Help: "Outbox publish attempts by result.",
	}, []string{"result"})
	reg.MustRegister(deliveries, duration, outbox)
	return &WebhookMetrics{
		deliveries: deliveries,
		duration:   duration,
		outbox:     outbox,
	}
}

// IncDelivery increments the delivery counter for the given outcome.
func (w *WebhookMetrics) IncDelivery(outcome string) {
	if w == nil || w.deliveries == nil {
		return
	}
	w.deliveries.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveReconcile records the duration of a reconciliation run.
func (w *WebhookMetrics) ObserveReconcile(outcome string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncOutboxPublish increments the outbox publish counter for the given result.
func (w *WebhookMetrics) IncOutboxPublish(result string) {
	if w == nil || w.outbox == nil {
		return
	}
	w.outbox.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

// Delivery outcome labels.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Outbox publish result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)
