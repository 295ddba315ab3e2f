package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "infringement_console_backend_requests_total",
		Help: "Backend API calls by operation and outcome",
	}, []string{"operation", "outcome"})

	backendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "infringement_console_backend_request_duration_seconds",
		Help:    "Backend API call latency by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
