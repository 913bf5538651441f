// Package metrics declares the process wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crush"

var (
	likesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "likes_total",
		Help:      "Like attempts by outcome",
	}, []string{"outcome"})

	matchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_created_total",
		Help:      "Matches created by mutual likes",
	})

	unmatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unmatches_total",
		Help:      "Active matches flipped to unmatched",
	})

	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Messages delivered between matched profiles",
	})

	candidatesReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "discover_candidates",
		Help:      "Candidates returned per discovery request",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern and status",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	realtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_connections",
		Help:      "Open websocket connections",
	})
)

func Like(outcome string) {
	likesTotal.WithLabelValues(outcome).Inc()
}

func MatchCreated() {
	matchesCreated.Inc()
}

func Unmatched() {
	unmatchesTotal.Inc()
}

func MessageSent() {
	messagesSent.Inc()
}

func CandidatesReturned(n int) {
	candidatesReturned.Observe(float64(n))
}

func ObserveHTTP(method, route, status string, seconds float64) {
	httpDuration.WithLabelValues(method, route, status).Observe(seconds)
}

func RealtimeConnected() {
	realtimeConnections.Inc()
}

func RealtimeDisconnected() {
	realtimeConnections.Dec()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
