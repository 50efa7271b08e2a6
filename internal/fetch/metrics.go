package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "fetch_attempts_total",
			Help:      "Fetch attempts per strategy and outcome",
		},
		[]string{"method", "status"}, // status: ok, error, shell, challenge
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lookout",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single strategy fetch in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
		[]string{"method"},
	)

	challengeRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lookout",
			Name:      "challenge_retries_total",
			Help:      "Re-requests issued after a challenge interstitial",
		},
	)
)
