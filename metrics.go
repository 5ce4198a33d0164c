package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// matchRequestsTotal counts match endpoint requests, labeled by endpoint
	// ("list" or "detail") and outcome ("ok", "not_found", "error").
	matchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sendbuddy_match_requests_total",
		Help: "Total number of match requests served",
	}, []string{"endpoint", "outcome"})

	// matchesReturned records how many matches each list request returned.
	matchesReturned = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sendbuddy_matches_returned",
		Help:    "Number of matches returned per list request",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
	})

	// matchScores records the composite score of every match served.
	matchScores = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sendbuddy_match_scores",
		Help:    "Composite score distribution of served matches",
		Buckets: []float64{20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	// matchDuration records end-to-end matching latency in seconds.
	matchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sendbuddy_match_duration_seconds",
		Help:    "Matching engine latency in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	// notificationsPublished counts match notifications published to NATS.
	notificationsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sendbuddy_match_notifications_published_total",
		Help: "Total number of match notifications published",
	})
)

func init() {
	prometheus.MustRegister(
		matchRequestsTotal,
		matchesReturned,
		matchScores,
		matchDuration,
		notificationsPublished,
	)
}

// metricsHandler returns the Prometheus metrics HTTP handler.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
