package classify

import (
	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/internal/sensing"
)

const (
	// MinConversationSamples is the smallest audio window that yields a classification.
	MinConversationSamples = 20
	peakMargin             = 8
)

// ConversationStats summarises an audio window.
type ConversationStats struct {
	Mean     float64
	Std      float64
	PeakRate float64
}

// AudioStats computes mean, deviation and the fraction of samples above mean+8.
func AudioStats(levels []float64) ConversationStats {
	stats := ConversationStats{Mean: sensing.Mean(levels), Std: sensing.StdDev(levels)}
	if len(levels) == 0 {
		return stats
	}
	peaks := 0
	for _, l := range levels {
		if l > stats.Mean+peakMargin {
			peaks++
		}
	}
	stats.PeakRate = float64(peaks) / float64(len(levels))
	return stats
}

// ConversationBand maps audio statistics to a conversation state.
func ConversationBand(s ConversationStats) domain.ConversationState {
	switch {
	case s.Mean < 12:
		return domain.ConversationSilent
	case s.Mean >= 45 || (s.PeakRate >= 0.35 && s.Std > 12):
		return domain.ConversationConversation
	case s.Mean < 30 && s.PeakRate < 0.25:
		return domain.ConversationSilent
	default:
		return domain.ConversationTalking
	}
}

// ConversationClassifier holds the previous state across ticks with too little audio.
type ConversationClassifier struct {
	state domain.ConversationState
}

// NewConversationClassifier starts in the silent state.
func NewConversationClassifier() *ConversationClassifier {
	return &ConversationClassifier{state: domain.ConversationSilent}
}

// Classify returns the state for the window; the boolean is false when the
// window was too small and the previous state is returned unchanged.
func (c *ConversationClassifier) Classify(levels []float64) (domain.ConversationState, bool) {
	if len(levels) < MinConversationSamples {
		recordHold("conversation")
		return c.state, false
	}
	c.state = ConversationBand(AudioStats(levels))
	recordClassification("conversation", string(c.state))
	return c.state, true
}

// State returns the current state.
func (c *ConversationClassifier) State() domain.ConversationState { return c.state }
