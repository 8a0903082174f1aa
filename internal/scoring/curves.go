// Package scoring maps daily wellbeing metrics to 0–100 dimension scores and
// maintains the smoothed running score for a user.
package scoring

import "example.com/wellbeing/internal/domain"

// Knot is one breakpoint of a piecewise-linear curve.
type Knot struct {
	X     float64
	Score float64
}

// Curve is a non-decreasing piecewise-linear mapping. Below the first knot the
// score falls proportionally to zero at x=0; above the last knot it saturates.
type Curve []Knot

var (
	// SleepCurve maps hours of sleep.
	SleepCurve = Curve{{4, 10}, {5, 30}, {6, 60}, {7, 80}, {7.5, 90}, {8, 100}}
	// ActivityCurve maps weighted active minutes.
	ActivityCurve = Curve{{5, 25}, {10, 50}, {15, 65}, {20, 80}, {30, 100}}
	// SocialCurve maps minutes of conversation.
	SocialCurve = Curve{{5, 20}, {10, 40}, {20, 55}, {30, 70}, {45, 85}, {60, 100}}
)

// Score evaluates the curve at x, clamped to [0, 100].
func (c Curve) Score(x float64) float64 {
	if len(c) == 0 || x != x || x <= 0 {
		return 0
	}
	first := c[0]
	if x < first.X {
		return clamp(first.Score * x / first.X)
	}
	for i := 1; i < len(c); i++ {
		lo, hi := c[i-1], c[i]
		if x < hi.X {
			return clamp(lo.Score + (x-lo.X)*(hi.Score-lo.Score)/(hi.X-lo.X))
		}
	}
	return clamp(c[len(c)-1].Score)
}

// SleepScore scores hours of sleep.
func SleepScore(hours float64) float64 { return SleepCurve.Score(hours) }

// ActivityScore scores weighted active minutes.
func ActivityScore(minutes float64) float64 { return ActivityCurve.Score(minutes) }

// SocialScore scores minutes of social interaction.
func SocialScore(minutes float64) float64 { return SocialCurve.Score(minutes) }

// DailyScores converts one day of metrics to dimension scores.
func DailyScores(date string, m domain.WellbeingMetrics) domain.DailyWellbeingScores {
	return domain.DailyWellbeingScores{
		Date:              date,
		Sleep:             SleepScore(m.SleepHours),
		PhysicalActivity:  ActivityScore(m.PhysicalActivityMinutes),
		SocialInteraction: SocialScore(m.SocialInteractionMinutes),
	}
}

// Smooth blends today's score into the previous running score.
func Smooth(alpha, today, previous float64) float64 {
	return clamp(alpha*today + (1-alpha)*previous)
}

// unsmooth returns the previous score that Smooth blended with today to give current.
func unsmooth(alpha, current, today float64) float64 {
	return clamp((current - alpha*today) / (1 - alpha))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
