package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsFinishedTotal, jobsInFlight, jobRetriesTotal) }

var jobsFinishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "analysis_jobs_finished_total",
		Help: "Analysis jobs that reached a terminal state, by status and kind.",
	},
	[]string{"status", "kind"}, // 'completed'|'failed', 'standard'|'per_frame'
)

var jobsInFlight = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "analysis_jobs_in_flight",
		Help: "Jobs currently in processing state.",
	},
)

var jobRetriesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "analysis_job_retries_total",
		Help: "Poll failures absorbed by the retry budget.",
	},
)

func IncJobFinished(status, kind string) {
	jobsFinishedTotal.WithLabelValues(status, kind).Inc()
}

func SetJobsInFlight(n int) {
	jobsInFlight.Set(float64(n))
}

func IncJobRetry() {
	jobRetriesTotal.Inc()
}
