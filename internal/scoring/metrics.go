package scoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	committedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wellbeing",
		Subsystem: "scoring",
		Name:      "updates_committed_total",
		Help:      "Number of score updates applied to the running score.",
	})

	discardedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wellbeing",
		Subsystem: "scoring",
		Name:      "updates_discarded_total",
		Help:      "Number of score updates dropped because every metric was zero.",
	})

	syncFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellbeing",
		Subsystem: "scoring",
		Name:      "sync_failures_total",
		Help:      "Number of failed reads or writes against the score store and local cache.",
	}, []string{"operation"})

	lastUpdateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wellbeing",
		Subsystem: "scoring",
		Name:      "last_update_timestamp_seconds",
		Help:      "Unix timestamp of the most recent committed score update.",
	})

	updateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wellbeing",
		Subsystem: "scoring",
		Name:      "update_duration_seconds",
		Help:      "Time spent computing, caching and syncing a score update.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})
)

func init() {
	prometheus.MustRegister(committedCounter, discardedCounter, syncFailureCounter, lastUpdateGauge, updateDuration)
}

func recordScoreUpdated(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastUpdateGauge.Set(float64(ts.Unix()))
}
