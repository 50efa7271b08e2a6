package extract

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "extractions_total",
			Help:      "Completed extraction chains by the method that produced the result",
		},
		[]string{"method"}, // http, challenge, playwright, rod, default
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "extraction_fallbacks_total",
			Help:      "Fallback attempts after the chosen strategy failed",
		},
		[]string{"method"},
	)

	extractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lookout",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of an uncached extraction chain in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 11), // 100ms to ~100s
		},
	)
)
