// Package obs holds the process-wide prometheus metrics.
package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_transitions_total",
			Help: "Session state machine transitions.",
		},
		[]string{"from", "to"},
	)

	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Backend API calls by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Backend API call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// Init registers the metrics with the default registry. Call once from main;
// tests skip it so counters stay unregistered but still usable.
func Init() {
	prometheus.MustRegister(sessionTransitions, apiRequestsTotal, apiRequestDuration)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SessionTransition records one state machine transition.
func SessionTransition(from, to string) {
	sessionTransitions.WithLabelValues(from, to).Inc()
}

// APIRequest records one backend call.
func APIRequest(op, outcome string, elapsed time.Duration) {
	apiRequestsTotal.WithLabelValues(op, outcome).Inc()
	apiRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}
