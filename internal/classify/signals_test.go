package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellbeing/internal/domain"
)

func TestConversationClassifierHoldsOnShortWindow(t *testing.T) {
	c := NewConversationClassifier()

	state, ok := c.Classify(constant(50, 19))
	require.False(t, ok)
	require.Equal(t, domain.ConversationSilent, state)

	state, ok = c.Classify(constant(50, 20))
	require.True(t, ok)
	require.Equal(t, domain.ConversationConversation, state)

	state, ok = c.Classify(constant(5, 3))
	require.False(t, ok)
	require.Equal(t, domain.ConversationConversation, state)
}

func TestConversationBands(t *testing.T) {
	cases := []struct {
		name   string
		levels []float64
		want   domain.ConversationState
	}{
		{"quiet room", constant(5, 20), domain.ConversationSilent},
		{"steady hum in low band", constant(20, 20), domain.ConversationSilent},
		{"low band with speech peaks", append(constant(15, 15), constant(30, 5)...), domain.ConversationTalking},
		{"mid band", constant(35, 20), domain.ConversationTalking},
		{"bursty exchange", append(constant(10, 12), constant(50, 8)...), domain.ConversationConversation},
		{"loud", constant(50, 20), domain.ConversationConversation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ConversationBand(AudioStats(tc.levels)))
		})
	}
}

func TestAudioStatsPeakRate(t *testing.T) {
	stats := AudioStats(append(constant(10, 12), constant(50, 8)...))
	require.InDelta(t, 26, stats.Mean, 1e-9)
	require.InDelta(t, 0.4, stats.PeakRate, 1e-9)
	require.Greater(t, stats.Std, 12.0)
}

func TestClassifyLocation(t *testing.T) {
	_, ok := ClassifyLocation([]float64{1, 1}, 10)
	require.False(t, ok)

	cases := []struct {
		name     string
		speeds   []float64
		accuracy float64
		want     domain.Location
	}{
		{"average speed", []float64{0.6, 0.6, 0.6}, 10, domain.LocationMoving},
		{"single burst", []float64{0.1, 0.1, 0.9}, 50, domain.LocationMoving},
		{"good fix", []float64{0, 0, 0}, 10, domain.LocationOutdoor},
		{"poor fix", []float64{0, 0, 0}, 50, domain.LocationIndoor},
		{"no fix", []float64{0, 0, 0}, 0, domain.LocationStationary},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loc, ok := ClassifyLocation(tc.speeds, tc.accuracy)
			require.True(t, ok)
			require.Equal(t, tc.want, loc)
		})
	}
}

func TestDetectSleep(t *testing.T) {
	night := time.Date(2026, time.May, 4, 23, 0, 0, 0, time.UTC)
	base := SleepInput{
		Now:             night,
		InactiveSeconds: 60,
		RecentAudio:     constant(5, SleepAudioWindow),
		RecentAccel:     constant(1, SleepAccelWindow),
	}
	require.True(t, DetectSleep(base))

	morning := base
	morning.Now = time.Date(2026, time.May, 4, 8, 30, 0, 0, time.UTC)
	require.True(t, DetectSleep(morning))

	afternoon := base
	afternoon.Now = time.Date(2026, time.May, 4, 14, 0, 0, 0, time.UTC)
	require.False(t, DetectSleep(afternoon))

	restless := base
	restless.InactiveSeconds = 30
	require.False(t, DetectSleep(restless))

	noisy := base
	noisy.RecentAudio = constant(20, SleepAudioWindow)
	require.False(t, DetectSleep(noisy))

	muted := base
	muted.RecentAudio = nil
	require.False(t, DetectSleep(muted))

	moved := base
	moved.RecentAccel = append(constant(1, SleepAccelWindow-1), 1.2)
	require.False(t, DetectSleep(moved))

	sparse := base
	sparse.RecentAccel = constant(1, 5)
	require.False(t, DetectSleep(sparse))
}
