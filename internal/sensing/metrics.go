package sensing

import "github.com/prometheus/client_golang/prometheus"

var (
	ingestedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellbeing",
		Subsystem: "sensing",
		Name:      "samples_ingested_total",
		Help:      "Number of sensor samples accepted into rolling windows, by stream.",
	}, []string{"stream"})

	invalidCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellbeing",
		Subsystem: "sensing",
		Name:      "samples_rejected_total",
		Help:      "Number of sensor samples rejected as malformed or for an unknown stream.",
	}, []string{"stream"})
)

func init() {
	prometheus.MustRegister(ingestedCounter, invalidCounter)
}

func recordIngested(stream string) {
	ingestedCounter.WithLabelValues(stream).Inc()
}

func recordInvalid(stream string) {
	switch stream {
	case StreamAccelerometer, StreamLocation, StreamAudio:
	default:
		stream = "unknown"
	}
	invalidCounter.WithLabelValues(stream).Inc()
}
