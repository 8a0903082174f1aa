// Package domain defines the wellbeing model shared by the classifiers, the
// event timeline and the scoring engine.
package domain

import (
	"context"
	"errors"
	"time"
)

// DateLayout is the calendar-day key used for daily score rows.
const DateLayout = "2006-01-02"

var (
	// ErrScoreNotFound indicates no current score has been computed for the user yet.
	ErrScoreNotFound = errors.New("wellbeing score not found")
)

// Activity is the discrete physical activity label.
type Activity string

const (
	ActivityStationary Activity = "stationary"
	ActivityWalking    Activity = "walking"
	ActivityRunning    Activity = "running"
	ActivityCycling    Activity = "cycling"
	ActivitySleeping   Activity = "sleeping"
	ActivityUnknown    Activity = "unknown"
)

// IsLocomotion reports whether the label describes the user moving on foot or by bike.
func (a Activity) IsLocomotion() bool {
	switch a {
	case ActivityWalking, ActivityRunning, ActivityCycling:
		return true
	}
	return false
}

// ConversationState is the discrete conversational label.
type ConversationState string

const (
	ConversationSilent       ConversationState = "silent"
	ConversationTalking      ConversationState = "talking"
	ConversationConversation ConversationState = "conversation"
)

// IsSocial reports whether the state counts towards social interaction.
func (s ConversationState) IsSocial() bool {
	return s == ConversationTalking || s == ConversationConversation
}

// Location is the coarse location context.
type Location string

const (
	LocationMoving     Location = "moving"
	LocationOutdoor    Location = "outdoor"
	LocationIndoor     Location = "indoor"
	LocationStationary Location = "stationary"
)

// ActivityEvent marks a change of the classified activity label.
type ActivityEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Activity   Activity  `json:"activity"`
	Confidence float64   `json:"confidence"`
}

// ConversationEvent records a conversational state and how long it lasted in seconds.
type ConversationEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	State     ConversationState `json:"state"`
	Duration  float64           `json:"duration"`
}

// WellbeingMetrics bridges the event timeline and the dimension scores for one day.
type WellbeingMetrics struct {
	SleepHours               float64 `json:"sleep_hours"`
	PhysicalActivityMinutes  float64 `json:"physical_activity_minutes"`
	SocialInteractionMinutes float64 `json:"social_interaction_minutes"`
}

// HasData reports whether at least one metric is strictly positive.
func (m WellbeingMetrics) HasData() bool {
	return m.SleepHours > 0 || m.PhysicalActivityMinutes > 0 || m.SocialInteractionMinutes > 0
}

// DailyWellbeingScores is one calendar day of dimension scores.
type DailyWellbeingScores struct {
	Date              string  `json:"date"`
	Sleep             float64 `json:"sleep"`
	PhysicalActivity  float64 `json:"physical_activity"`
	SocialInteraction float64 `json:"social_interaction"`
}

// WellbeingScore is the running, smoothed score for a user.
type WellbeingScore struct {
	Sleep             float64   `json:"sleep"`
	PhysicalActivity  float64   `json:"physical_activity"`
	SocialInteraction float64   `json:"social_interaction"`
	Overall           float64   `json:"overall"`
	LastUpdated       time.Time `json:"last_updated"`
}

// NewWellbeingScore builds a score with Overall derived from the three dimensions.
func NewWellbeingScore(sleep, activity, social float64, updated time.Time) WellbeingScore {
	s := WellbeingScore{
		Sleep:             clampScore(sleep),
		PhysicalActivity:  clampScore(activity),
		SocialInteraction: clampScore(social),
		LastUpdated:       updated,
	}
	s.Overall = (s.Sleep + s.PhysicalActivity + s.SocialInteraction) / 3
	return s
}

func clampScore(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ScoreStore is the remote persistence contract of the scoring engine.
type ScoreStore interface {
	GetCurrent(ctx context.Context, userID string) (*WellbeingScore, error)
	UpsertCurrent(ctx context.Context, userID string, score WellbeingScore) error
	UpsertDaily(ctx context.Context, userID string, daily DailyWellbeingScores) error
	ListDaily(ctx context.Context, userID string, limit int) ([]DailyWellbeingScores, error)
}

// LocalCache is a string key-value store that survives process restarts.
type LocalCache interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, value string) error
}
