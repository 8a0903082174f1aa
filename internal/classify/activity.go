// Package classify turns windowed sensor statistics into discrete activity,
// conversation, location and sleep signals.
package classify

import (
	"math"
	"time"

	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/internal/sensing"
)

const (
	// GravityBaseline is the magnitude of a device at rest, in g.
	GravityBaseline = 1.0
	// MinActivitySamples is the smallest acceleration window that yields a classification.
	MinActivitySamples = 10
	// UnknownConfidence is reported when no rule matches.
	UnknownConfidence = 30
	// SleepRuleInactivity is the inactivity the sleeping rule requires, in seconds.
	SleepRuleInactivity = 120
	// GPSReliableAccuracy is the worst accuracy, in metres, at which GPS speed is trusted.
	GPSReliableAccuracy = 30
)

// ActivityInput is the statistics vector the activity rules are evaluated against.
type ActivityInput struct {
	AccelStd             float64
	SpeedMean            float64
	DeviationFromGravity float64
	GPSAccuracy          float64
	InactiveSeconds      float64
}

// ActivityRule is one row of the activity decision table.
type ActivityRule struct {
	Label      domain.Activity
	MaxConf    float64
	Match      func(ActivityInput) bool
	Confidence func(ActivityInput) float64
}

// DefaultActivityRules is evaluated in order; the first matching rule wins.
var DefaultActivityRules = []ActivityRule{
	{
		Label:   domain.ActivitySleeping,
		MaxConf: 90,
		Match: func(in ActivityInput) bool {
			return in.AccelStd < 0.03 && in.DeviationFromGravity < 0.05 && in.SpeedMean < 0.2 &&
				in.InactiveSeconds >= SleepRuleInactivity
		},
		Confidence: func(in ActivityInput) float64 {
			return 70 + (in.InactiveSeconds-SleepRuleInactivity)/30
		},
	},
	{
		Label:   domain.ActivityCycling,
		MaxConf: 88,
		Match: func(in ActivityInput) bool {
			return gpsReliable(in.GPSAccuracy) && in.SpeedMean >= 4 && in.SpeedMean <= 12 &&
				in.AccelStd >= 0.05 && in.AccelStd < 0.4
		},
		Confidence: func(in ActivityInput) float64 {
			return 60 + (in.SpeedMean-4)*4 + (0.4-in.AccelStd)*25
		},
	},
	{
		Label:   domain.ActivityRunning,
		MaxConf: 92,
		Match: func(in ActivityInput) bool {
			return in.AccelStd >= 0.4 && (in.SpeedMean >= 1.8 || !gpsReliable(in.GPSAccuracy))
		},
		Confidence: func(in ActivityInput) float64 {
			return 65 + (in.AccelStd-0.4)*50 + math.Max(0, in.SpeedMean-1.8)*4
		},
	},
	{
		Label:   domain.ActivityWalking,
		MaxConf: 90,
		Match: func(in ActivityInput) bool {
			return in.AccelStd >= 0.08 && in.AccelStd < 0.4 && in.SpeedMean < 2.5
		},
		Confidence: func(in ActivityInput) float64 {
			conf := 60 + math.Min(in.AccelStd-0.08, 0.2)*100
			if in.SpeedMean >= 0.5 {
				conf += 10
			}
			return conf
		},
	},
	{
		Label:   domain.ActivityStationary,
		MaxConf: 95,
		Match: func(in ActivityInput) bool {
			return in.AccelStd < 0.05 && in.SpeedMean < 0.3 && in.DeviationFromGravity < 0.1
		},
		Confidence: func(in ActivityInput) float64 {
			return 80 + (0.05-in.AccelStd)*600
		},
	},
}

func gpsReliable(accuracy float64) bool {
	return accuracy > 0 && accuracy <= GPSReliableAccuracy
}

// EvaluateActivity runs the decision table against one statistics vector.
func EvaluateActivity(rules []ActivityRule, in ActivityInput) (domain.Activity, float64) {
	for _, rule := range rules {
		if !rule.Match(in) {
			continue
		}
		conf := rule.Confidence(in)
		if conf > rule.MaxConf {
			conf = rule.MaxConf
		}
		if conf < 0 {
			conf = 0
		}
		return rule.Label, conf
	}
	return domain.ActivityUnknown, UnknownConfidence
}

// ActivityResult is the per-tick activity output.
type ActivityResult struct {
	Activity   domain.Activity
	Confidence float64
	// Changed is true when the label differs from the previously emitted one.
	Changed bool
}

// ActivityClassifier evaluates the activity rules every tick and tracks the
// inactivity counter and the last emitted label.
type ActivityClassifier struct {
	rules    []ActivityRule
	inactive float64
	last     domain.Activity
}

// NewActivityClassifier builds a classifier over rules, falling back to DefaultActivityRules.
func NewActivityClassifier(rules []ActivityRule) *ActivityClassifier {
	if len(rules) == 0 {
		rules = DefaultActivityRules
	}
	return &ActivityClassifier{rules: rules}
}

// Classify evaluates the windows. The boolean is false when the acceleration
// window is too small, in which case nothing changes and the caller keeps its
// previous state. elapsed is the tick length added to the inactivity counter.
func (c *ActivityClassifier) Classify(accel, speed []float64, gpsAccuracy float64, elapsed time.Duration) (ActivityResult, bool) {
	if len(accel) < MinActivitySamples {
		recordHold("activity")
		return ActivityResult{}, false
	}

	in := ActivityInput{
		AccelStd:             sensing.StdDev(accel),
		SpeedMean:            sensing.Mean(speed),
		DeviationFromGravity: math.Abs(sensing.Mean(accel) - GravityBaseline),
		GPSAccuracy:          gpsAccuracy,
		InactiveSeconds:      c.inactive,
	}
	label, conf := EvaluateActivity(c.rules, in)

	switch {
	case label == domain.ActivityStationary || label == domain.ActivitySleeping:
		c.inactive += elapsed.Seconds()
	case label.IsLocomotion():
		c.inactive = 0
	}

	result := ActivityResult{Activity: label, Confidence: conf, Changed: label != c.last}
	c.last = label
	recordClassification("activity", string(label))
	if result.Changed {
		recordTransition(string(label))
	}
	return result, true
}

// InactiveSeconds returns the running inactivity counter.
func (c *ActivityClassifier) InactiveSeconds() float64 { return c.inactive }

// Last returns the last emitted label, empty before the first classification.
func (c *ActivityClassifier) Last() domain.Activity { return c.last }
