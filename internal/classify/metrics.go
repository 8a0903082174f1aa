package classify

import "github.com/prometheus/client_golang/prometheus"

var (
	classificationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellbeing",
		Subsystem: "classify",
		Name:      "classifications_total",
		Help:      "Number of classifications emitted, by classifier and label.",
	}, []string{"classifier", "label"})

	holdCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellbeing",
		Subsystem: "classify",
		Name:      "insufficient_data_total",
		Help:      "Number of ticks a classifier held its previous output for lack of samples.",
	}, []string{"classifier"})

	transitionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellbeing",
		Subsystem: "classify",
		Name:      "activity_transitions_total",
		Help:      "Number of activity label changes, by the label entered.",
	}, []string{"activity"})
)

func init() {
	prometheus.MustRegister(classificationCounter, holdCounter, transitionCounter)
}

func recordClassification(classifier, label string) {
	classificationCounter.WithLabelValues(classifier, label).Inc()
}

func recordHold(classifier string) {
	holdCounter.WithLabelValues(classifier).Inc()
}

func recordTransition(activity string) {
	transitionCounter.WithLabelValues(activity).Inc()
}
