package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fpid",
		Name:      "stage_duration_seconds",
		Help:      "Duration of a matching-pipeline stage (condition, extract, match, corroborate)",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"stage"})

	IdentificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fpid",
		Name:      "identifications_total",
		Help:      "Total identify_employee calls by outcome",
	}, []string{"outcome"})

	MatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fpid",
		Name:      "matches_total",
		Help:      "Total match/verification calls by outcome",
	}, []string{"outcome"})

	IndexEmployees = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fpid",
		Name:      "index_employees",
		Help:      "Number of employees currently loaded in the in-memory index",
	})

	IndexBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fpid",
		Name:      "index_build_duration_seconds",
		Help:      "Duration of the most recent employee index (re)build",
		Buckets:   prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fpid",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
