package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellbeing/internal/domain"
)

func TestEvaluateActivityDecisionTable(t *testing.T) {
	cases := []struct {
		name  string
		in    ActivityInput
		label domain.Activity
		conf  float64
	}{
		{"stationary capped", ActivityInput{AccelStd: 0.02, SpeedMean: 0.1, DeviationFromGravity: 0.05, GPSAccuracy: 10}, domain.ActivityStationary, 95},
		{"sleeping after long inactivity", ActivityInput{AccelStd: 0.01, DeviationFromGravity: 0.01, InactiveSeconds: 300}, domain.ActivitySleeping, 76},
		{"sleeping capped", ActivityInput{AccelStd: 0.01, DeviationFromGravity: 0.01, InactiveSeconds: 1200}, domain.ActivitySleeping, 90},
		{"cycling", ActivityInput{AccelStd: 0.2, SpeedMean: 6, GPSAccuracy: 10}, domain.ActivityCycling, 73},
		{"running with gps", ActivityInput{AccelStd: 0.6, SpeedMean: 3, GPSAccuracy: 10}, domain.ActivityRunning, 79.8},
		{"running without gps fix", ActivityInput{AccelStd: 0.6}, domain.ActivityRunning, 75},
		{"walking", ActivityInput{AccelStd: 0.15, SpeedMean: 1.2, GPSAccuracy: 10}, domain.ActivityWalking, 77},
		{"between bands", ActivityInput{AccelStd: 0.06, SpeedMean: 0.1}, domain.ActivityUnknown, UnknownConfidence},
		{"vigorous but slow with good fix", ActivityInput{AccelStd: 0.6, SpeedMean: 0.5, GPSAccuracy: 10}, domain.ActivityUnknown, UnknownConfidence},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			label, conf := EvaluateActivity(DefaultActivityRules, tc.in)
			require.Equal(t, tc.label, label)
			require.InDelta(t, tc.conf, conf, 1e-9)
		})
	}
}

func TestEvaluateActivityFirstMatchWins(t *testing.T) {
	always := func(ActivityInput) bool { return true }
	rules := []ActivityRule{
		{Label: domain.ActivityWalking, MaxConf: 50, Match: always, Confidence: func(ActivityInput) float64 { return 80 }},
		{Label: domain.ActivityRunning, MaxConf: 90, Match: always, Confidence: func(ActivityInput) float64 { return 80 }},
	}

	label, conf := EvaluateActivity(rules, ActivityInput{})
	require.Equal(t, domain.ActivityWalking, label)
	require.Equal(t, 50.0, conf)
}

func TestActivityClassifierNeedsTenSamples(t *testing.T) {
	c := NewActivityClassifier(nil)

	_, ok := c.Classify(constant(1, 9), nil, 0, time.Second)
	require.False(t, ok)
	require.Empty(t, c.Last())
}

func TestActivityClassifierInactivityAndTransitions(t *testing.T) {
	c := NewActivityClassifier(nil)
	still := constant(1, 30)

	changes := 0
	var last ActivityResult
	for i := 0; i < 121; i++ {
		res, ok := c.Classify(still, []float64{0}, 10, time.Second)
		require.True(t, ok)
		if res.Changed {
			changes++
		}
		last = res
	}

	require.Equal(t, domain.ActivitySleeping, last.Activity)
	require.Equal(t, 2, changes)
	require.InDelta(t, 121, c.InactiveSeconds(), 1e-9)

	walking := make([]float64, 30)
	for i := range walking {
		walking[i] = 0.85
		if i%2 == 1 {
			walking[i] = 1.15
		}
	}
	res, ok := c.Classify(walking, []float64{1.2}, 10, time.Second)
	require.True(t, ok)
	require.Equal(t, domain.ActivityWalking, res.Activity)
	require.True(t, res.Changed)
	require.Zero(t, c.InactiveSeconds())

	res, _ = c.Classify(walking, []float64{1.2}, 10, time.Second)
	require.False(t, res.Changed)
}

func TestActivityClassifierUnknownKeepsInactivity(t *testing.T) {
	c := NewActivityClassifier(nil)
	for i := 0; i < 5; i++ {
		c.Classify(constant(1, 20), nil, 0, time.Second)
	}
	require.InDelta(t, 5, c.InactiveSeconds(), 1e-9)

	jitter := make([]float64, 20)
	for i := range jitter {
		jitter[i] = 0.94
		if i%2 == 1 {
			jitter[i] = 1.06
		}
	}
	res, ok := c.Classify(jitter, nil, 0, time.Second)
	require.True(t, ok)
	require.Equal(t, domain.ActivityUnknown, res.Activity)
	require.InDelta(t, 5, c.InactiveSeconds(), 1e-9)
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
