package scoring

import (
	"math"
	"time"

	"example.com/wellbeing/internal/domain"
)

// SampleDays is the length of the synthetic history shown before real data exists.
const SampleDays = 7

// SampleHistory generates a deterministic, gently varying history ending on
// end, newest first, together with the running score it smooths into.
func SampleHistory(end time.Time, days int, alpha float64) (domain.WellbeingScore, []domain.DailyWellbeingScores) {
	if days < 1 {
		days = SampleDays
	}
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}

	daily := make([]domain.DailyWellbeingScores, days)
	for i := 0; i < days; i++ {
		f := float64(i)
		daily[i] = domain.DailyWellbeingScores{
			Date:              end.AddDate(0, 0, -i).Format(domain.DateLayout),
			Sleep:             round1(72 + 8*math.Sin(f*0.9)),
			PhysicalActivity:  round1(64 + 10*math.Sin(f*0.7+1)),
			SocialInteraction: round1(58 + 9*math.Sin(f*0.5+2)),
		}
	}

	oldest := daily[days-1]
	sleep, activity, social := oldest.Sleep, oldest.PhysicalActivity, oldest.SocialInteraction
	for i := days - 2; i >= 0; i-- {
		d := daily[i]
		sleep = Smooth(alpha, d.Sleep, sleep)
		activity = Smooth(alpha, d.PhysicalActivity, activity)
		social = Smooth(alpha, d.SocialInteraction, social)
	}
	return domain.NewWellbeingScore(sleep, activity, social, end), daily
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
