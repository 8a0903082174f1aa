package tracker

import "github.com/prometheus/client_golang/prometheus"

var (
	activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wellbeing",
		Subsystem: "tracker",
		Name:      "active_sessions",
		Help:      "Number of signed-in user sessions.",
	})

	ticksCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wellbeing",
		Subsystem: "tracker",
		Name:      "session_ticks_total",
		Help:      "Number of per-session classification ticks.",
	})

	reapedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wellbeing",
		Subsystem: "tracker",
		Name:      "sessions_reaped_total",
		Help:      "Number of sessions ended after going idle.",
	})
)

func init() {
	prometheus.MustRegister(activeSessions, ticksCounter, reapedCounter)
}
