package scheduler

import "github.com/prometheus/client_golang/prometheus"

var (
	runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wellbeing",
		Subsystem: "scheduler",
		Name:      "run_duration_seconds",
		Help:      "Duration of scheduled scoring passes.",
		Buckets:   prometheus.DefBuckets,
	})

	runFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wellbeing",
		Subsystem: "scheduler",
		Name:      "run_failures_total",
		Help:      "Number of scheduled scoring passes that returned an error.",
	})
)

func init() {
	prometheus.MustRegister(runDuration, runFailures)
}
