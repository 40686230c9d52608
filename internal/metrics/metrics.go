// Package metrics defines the Prometheus collectors for hush and the handler
// that exposes them. Collectors are package-level and registered once via
// promauto; callers increment them directly.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SecretsCreated counts successfully stored secrets.
	SecretsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hush_secrets_created_total",
		Help: "Number of secrets successfully created.",
	})

	// SecretsRevealed counts successful one-time reveals.
	SecretsRevealed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hush_secrets_revealed_total",
		Help: "Number of secrets revealed and consumed.",
	})

	// ChallengeFailures counts rejected challenge answers.
	ChallengeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hush_challenge_failures_total",
		Help: "Number of reveal attempts rejected for a wrong challenge answer.",
	})

	// SecretsExpiredDeleted counts secrets removed by the janitor sweep.
	SecretsExpiredDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hush_secrets_expired_deleted_total",
		Help: "Number of expired secrets deleted by the background sweep.",
	})

	// IngestMessages counts queue messages by outcome.
	IngestMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hush_ingest_messages_total",
		Help: "Number of ingestion queue messages processed, by outcome.",
	}, []string{"outcome"})

	// HTTPDuration observes request latency per route and status class.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hush_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

// Ingest message outcomes.
const (
	IngestOutcomeCreated  = "created"
	IngestOutcomeInvalid  = "invalid"
	IngestOutcomeRequeued = "requeued"
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler { return promhttp.Handler() }
