package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the enforcement layer.
type Metrics struct {
	DecisionsTotal      *prometheus.CounterVec
	EvaluationDuration  *prometheus.HistogramVec
	EngineErrorsTotal   prometheus.Counter
	StreamEventsDropped prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "a2aopa",
				Name:      "decisions_total",
				Help:      "Total policy decisions by operation and outcome",
			},
			[]string{"operation", "outcome"}, // outcome=allow/deny/error
		),
		EvaluationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "a2aopa",
				Name:      "evaluation_duration_seconds",
				Help:      "Policy evaluation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		EngineErrorsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "a2aopa",
				Name:      "engine_errors_total",
				Help:      "Total policy engine evaluation failures",
			},
		),
		StreamEventsDropped: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "a2aopa",
				Name:      "stream_events_dropped_total",
				Help:      "Total stream events suppressed by the event filter",
			},
		),
	}
}
