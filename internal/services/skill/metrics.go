package skill

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skill_requests_total",
		Help: "Intent messages accepted for processing.",
	})
	responsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skill_responses_total",
		Help: "Answers published to client output topics.",
	})
	requestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skill_request_failures_total",
		Help: "Failed requests by pipeline stage.",
	}, []string{"stage"})
	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skill_request_duration_seconds",
		Help:    "End-to-end time spent answering one request.",
		Buckets: prometheus.DefBuckets,
	})
)
