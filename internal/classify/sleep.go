package classify

import (
	"math"
	"time"

	"example.com/wellbeing/internal/sensing"
)

const (
	// SleepAccelWindow is how many recent magnitudes must sit near gravity.
	SleepAccelWindow = 20
	// SleepAudioWindow is how many recent audio levels form the "recent level".
	SleepAudioWindow = 10

	sleepMinAccel         = MinActivitySamples
	sleepInactivity       = 30
	sleepAudioCeiling     = 15
	sleepGravityTolerance = 0.1
)

// SleepInput carries the signals the sleep gate combines.
type SleepInput struct {
	Now             time.Time
	InactiveSeconds float64
	RecentAudio     []float64
	RecentAccel     []float64
}

// IsNightHour reports whether hour falls in the 21:00–08:59 window.
func IsNightHour(hour int) bool {
	return hour >= 21 || hour <= 8
}

// DetectSleep is the hard sleep gate: night time, inactive for more than 30s,
// quiet, and every recent magnitude within ±0.1g of gravity. It is independent
// from the sleeping activity rule.
func DetectSleep(in SleepInput) bool {
	if !IsNightHour(in.Now.Hour()) {
		return false
	}
	if in.InactiveSeconds <= sleepInactivity {
		return false
	}
	if len(in.RecentAudio) == 0 || sensing.Mean(in.RecentAudio) >= sleepAudioCeiling {
		return false
	}
	if len(in.RecentAccel) < sleepMinAccel {
		return false
	}
	for _, m := range in.RecentAccel {
		if math.Abs(m-GravityBaseline) > sleepGravityTolerance {
			return false
		}
	}
	return true
}
