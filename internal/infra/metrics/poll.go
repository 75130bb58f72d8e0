package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(pollLatencyMs, pollsTotal) }

var pollLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "backend_poll_latency_ms",
		Help:    "Status-endpoint poll latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
	},
	[]string{"success"},
)

var pollsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "backend_polls_total",
		Help: "Status-endpoint polls by outcome.",
	},
	[]string{"outcome"}, // 'success', 'error'
)

func ObservePoll(latencyMs int, success bool) {
	pollLatencyMs.WithLabelValues(strconv.FormatBool(success)).Observe(float64(latencyMs))
	outcome := "success"
	if !success {
		outcome = "error"
	}
	pollsTotal.WithLabelValues(outcome).Inc()
}
