package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event ingestion metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_events_total",
			Help: "Total number of events received, by outcome",
		},
		[]string{"status"},
	)

	// Persistence metrics
	PersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_persist_duration_seconds",
			Help:    "Duration of storage submit/poll cycles in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_persist_errors_total",
			Help: "Total number of persistence failures, by kind",
		},
		[]string{"kind"},
	)

	// Credential resolution metrics
	SecretResolutionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_secret_resolution_errors_total",
			Help: "Total number of failed credential resolutions",
		},
	)
)
