package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request metrics. Parameterized paths are collapsed into their template via
// Request.Label, so endpoint cardinality stays bounded.
var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_requests_total",
			Help: "Request attempts by endpoint and outcome status",
		},
		[]string{"endpoint", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etl_request_duration_seconds",
			Help:    "Wall time of a single request attempt in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45},
		},
		[]string{"endpoint"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_retries_total",
			Help: "Retried attempts by fault class",
		},
		[]string{"class"},
	)

	backoffSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etl_retry_backoff_seconds",
			Help:    "Backoff delay waited between attempts in seconds",
			Buckets: []float64{1, 2, 4, 8, 16, 30, 35},
		},
		[]string{"class"},
	)

	retryExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_retry_exhausted_total",
			Help: "Requests abandoned after the attempt ceiling",
		},
		[]string{"endpoint"},
	)
)
