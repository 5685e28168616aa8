package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

var (
	planRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner2mqtt_plan_requests_total",
		Help: "Plan requests served over HTTP, by outcome.",
	}, []string{"outcome"})

	planRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner2mqtt_plan_request_duration_seconds",
		Help:    "End to end duration of HTTP plan requests.",
		Buckets: prometheus.DefBuckets,
	})
)
