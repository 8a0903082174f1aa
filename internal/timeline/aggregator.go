// Package timeline keeps the bounded history of classified events for one user
// session and integrates it into per-day wellbeing metrics.
package timeline

import (
	"sort"
	"time"

	"example.com/wellbeing/internal/domain"
)

// DefaultRetention bounds how long events are kept.
const DefaultRetention = 7 * 24 * time.Hour

const (
	sleepMinConfidence  = 70
	activeMinConfidence = 60
)

var activityWeights = map[domain.Activity]float64{
	domain.ActivityWalking: 1.0,
	domain.ActivityRunning: 1.5,
	domain.ActivityCycling: 1.3,
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithRetention overrides the retention window.
func WithRetention(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.retention = d
		}
	}
}

// WithClock overrides the time source used for pruning.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLocation sets the time zone calendar days are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// Aggregator owns the activity and conversation histories of one session. It is
// not safe for concurrent use; the owning session serializes access.
type Aggregator struct {
	retention     time.Duration
	now           func() time.Time
	loc           *time.Location
	activities    []domain.ActivityEvent
	conversations []domain.ConversationEvent
}

// New constructs an empty Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		retention: DefaultRetention,
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddActivity appends an activity event and prunes expired history.
func (a *Aggregator) AddActivity(evt domain.ActivityEvent) {
	a.activities = append(a.activities, evt)
	a.prune()
}

// AddConversation appends a conversation event and prunes expired history.
func (a *Aggregator) AddConversation(evt domain.ConversationEvent) {
	a.conversations = append(a.conversations, evt)
	a.prune()
}

// Activities returns a copy of the retained activity events.
func (a *Aggregator) Activities() []domain.ActivityEvent {
	a.prune()
	return append([]domain.ActivityEvent(nil), a.activities...)
}

// Conversations returns a copy of the retained conversation events.
func (a *Aggregator) Conversations() []domain.ConversationEvent {
	a.prune()
	return append([]domain.ConversationEvent(nil), a.conversations...)
}

func (a *Aggregator) prune() {
	cutoff := a.now().Add(-a.retention)

	keptA := a.activities[:0]
	for _, evt := range a.activities {
		if !evt.Timestamp.Before(cutoff) {
			keptA = append(keptA, evt)
		}
	}
	a.activities = keptA

	keptC := a.conversations[:0]
	for _, evt := range a.conversations {
		if !evt.Timestamp.Before(cutoff) {
			keptC = append(keptC, evt)
		}
	}
	a.conversations = keptC
}

// CalculateMetricsForDate integrates the events falling on the calendar day of
// date into sleep hours, weighted active minutes and social minutes.
func (a *Aggregator) CalculateMetricsForDate(date time.Time) domain.WellbeingMetrics {
	a.prune()

	local := date.In(a.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, a.loc)
	end := start.AddDate(0, 0, 1)

	var dayActivities []domain.ActivityEvent
	for _, evt := range a.activities {
		if inDay(evt.Timestamp, start, end) {
			dayActivities = append(dayActivities, evt)
		}
	}
	sort.SliceStable(dayActivities, func(i, j int) bool {
		return dayActivities[i].Timestamp.Before(dayActivities[j].Timestamp)
	})

	var social float64
	for _, evt := range a.conversations {
		if inDay(evt.Timestamp, start, end) && evt.State.IsSocial() {
			social += evt.Duration
		}
	}

	return domain.WellbeingMetrics{
		SleepHours:               SleepHours(dayActivities, a.loc),
		PhysicalActivityMinutes:  ActiveMinutes(dayActivities),
		SocialInteractionMinutes: social / 60,
	}
}

func inDay(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}

// SleepHours sums the time from each confident night-time sleeping event to
// the event that follows it. The final event has no successor and adds nothing.
func SleepHours(events []domain.ActivityEvent, loc *time.Location) float64 {
	if loc == nil {
		loc = time.Local
	}
	var seconds float64
	for i := 0; i+1 < len(events); i++ {
		cur := events[i]
		if cur.Activity != domain.ActivitySleeping || cur.Confidence < sleepMinConfidence {
			continue
		}
		if !isSleepHour(cur.Timestamp.In(loc).Hour()) {
			continue
		}
		seconds += events[i+1].Timestamp.Sub(cur.Timestamp).Seconds()
	}
	return seconds / 3600
}

// ActiveMinutes sums weighted locomotion time between consecutive events.
func ActiveMinutes(events []domain.ActivityEvent) float64 {
	var seconds float64
	for i := 0; i+1 < len(events); i++ {
		cur := events[i]
		weight, ok := activityWeights[cur.Activity]
		if !ok || cur.Confidence < activeMinConfidence {
			continue
		}
		seconds += events[i+1].Timestamp.Sub(cur.Timestamp).Seconds() * weight
	}
	return seconds / 60
}

func isSleepHour(hour int) bool {
	return hour >= 21 || hour <= 8
}
