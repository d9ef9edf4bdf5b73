package gateway

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hangart_client_requests_total",
			Help: "Total API requests issued through the gateway.",
		},
		[]string{"method", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hangart_client_request_duration_seconds",
			Help:    "End-to-end duration of gateway requests, replays included.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hangart_client_token_refresh_total",
			Help: "Credential refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, refreshTotal)
}

func observeRequest(method string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	requestsTotal.WithLabelValues(method, label).Inc()
	requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func observeRefresh(outcome string) {
	refreshTotal.WithLabelValues(outcome).Inc()
}
