// Package events defines the event payloads exchanged over Kafka.
package events

import "time"

// Event types recorded in the outbox.
const (
	TypeScoreUpdated = "wellbeing.score_updated"
	TypeDailyScored  = "wellbeing.daily_scored"
)

// WellbeingScoreUpdated is emitted whenever the running score of a user changes.
type WellbeingScoreUpdated struct {
	EventID           string    `json:"event_id"`
	UserID            string    `json:"user_id"`
	Sleep             float64   `json:"sleep"`
	PhysicalActivity  float64   `json:"physical_activity"`
	SocialInteraction float64   `json:"social_interaction"`
	Overall           float64   `json:"overall"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DailyScoreRecorded carries the dimension scores of one calendar day.
type DailyScoreRecorded struct {
	EventID           string    `json:"event_id"`
	UserID            string    `json:"user_id"`
	Date              string    `json:"date"`
	Sleep             float64   `json:"sleep"`
	PhysicalActivity  float64   `json:"physical_activity"`
	SocialInteraction float64   `json:"social_interaction"`
	RecordedAt        time.Time `json:"recorded_at"`
}

// SensorSample is one device reading inside a SensorBatch. Which fields are set
// depends on Stream: x/y/z for accelerometer, speed/accuracy for location and
// level for audio.
type SensorSample struct {
	Stream    string    `json:"stream"`
	Timestamp time.Time `json:"timestamp"`
	X         float64   `json:"x,omitempty"`
	Y         float64   `json:"y,omitempty"`
	Z         float64   `json:"z,omitempty"`
	Speed     float64   `json:"speed,omitempty"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Level     float64   `json:"level,omitempty"`
}

// SensorBatch is published by device gateways on the sensor topic.
type SensorBatch struct {
	BatchID  string         `json:"batch_id"`
	UserID   string         `json:"user_id"`
	DeviceID string         `json:"device_id,omitempty"`
	SentAt   time.Time      `json:"sent_at"`
	Samples  []SensorSample `json:"samples"`
}
