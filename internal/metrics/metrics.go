// Package metrics defines the Prometheus metrics exposed by the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookEventsTotal     *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Resolver metrics
	ResolverLookupsTotal *prometheus.CounterVec

	// Scraper metrics
	ScrapeRequestsTotal *prometheus.CounterVec

	// Media metrics
	UploadsTotal *prometheus.CounterVec

	// Reply metrics
	RepliesTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		WebhookEventsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hime_webhook_events_total",
				Help: "Total number of webhook events by type and status",
			},
			[]string{"event_type", "status"}, // status: success, error, ignored
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hime_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"event_type"}, // event_type: message, image, join, follow
		),

		ResolverLookupsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hime_resolver_lookups_total",
				Help: "Total number of keyword resolver lookups by kind and outcome",
			},
			[]string{"kind", "outcome"}, // kind: intent, entity; outcome: matched, unmatched
		),

		ScrapeRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hime_scrape_requests_total",
				Help: "Total number of listing scrape attempts by status",
			},
			[]string{"status"}, // status: success, error, duplicate
		),

		UploadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hime_media_uploads_total",
				Help: "Total number of object storage uploads by kind and status",
			},
			[]string{"kind", "status"}, // kind: original, thumbnail
		),

		RepliesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hime_replies_total",
				Help: "Total number of reply API calls by status",
			},
			[]string{"status"},
		),
	}
}

// RecordWebhookEvent records a processed webhook event.
func (m *Metrics) RecordWebhookEvent(eventType, status string, seconds float64) {
	m.WebhookEventsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(seconds)
}

// RecordResolve records a resolver lookup outcome.
func (m *Metrics) RecordResolve(kind string, matched bool) {
	outcome := "unmatched"
	if matched {
		outcome = "matched"
	}
	m.ResolverLookupsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordScrape records a listing scrape attempt.
func (m *Metrics) RecordScrape(status string) {
	m.ScrapeRequestsTotal.WithLabelValues(status).Inc()
}

// RecordUpload records an object storage upload.
func (m *Metrics) RecordUpload(kind, status string) {
	m.UploadsTotal.WithLabelValues(kind, status).Inc()
}

// RecordReply records a reply API call.
func (m *Metrics) RecordReply(status string) {
	m.RepliesTotal.WithLabelValues(status).Inc()
}
