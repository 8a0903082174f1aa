// Package tracker wires the per-user sensing pipeline together: sample
// buffers, classifiers, the event timeline and the scoring engine.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/wellbeing/internal/classify"
	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/internal/scoring"
	"example.com/wellbeing/internal/sensing"
	"example.com/wellbeing/internal/timeline"
)

// Reading is the real-time state of a session after the latest tick.
type Reading struct {
	UserID           string                   `json:"user_id"`
	Timestamp        time.Time                `json:"timestamp"`
	Activity         domain.Activity          `json:"activity"`
	Confidence       float64                  `json:"confidence"`
	ActivityHeld     bool                     `json:"activity_held"`
	Conversation     domain.ConversationState `json:"conversation"`
	ConversationHeld bool                     `json:"conversation_held"`
	Location         domain.Location          `json:"location"`
	LocationHeld     bool                     `json:"location_held"`
	Sleeping         bool                     `json:"sleeping"`
	InactiveSeconds  float64                  `json:"inactive_seconds"`
}

// Session is one signed-in user's pipeline. All mutation goes through the
// session mutex so sample pushes and ticks never interleave on a buffer.
type Session struct {
	ID        uuid.UUID
	UserID    string
	StartedAt time.Time

	loc          *time.Location
	tickInterval time.Duration
	engine       *scoring.Engine

	mu           sync.Mutex
	buffers      *sensing.Buffers
	activity     *classify.ActivityClassifier
	conversation *classify.ConversationClassifier
	timeline     *timeline.Aggregator
	reading      Reading
	lastTick     time.Time
	convState    domain.ConversationState
	convSince    time.Time
	lastSeen     time.Time
	closed       bool
}

func newSession(userID string, started time.Time, t *Tracker) *Session {
	s := &Session{
		ID:           uuid.New(),
		UserID:       userID,
		StartedAt:    started,
		loc:          t.loc,
		tickInterval: t.tickInterval,
		buffers:      sensing.NewBuffers(),
		activity:     classify.NewActivityClassifier(t.rules),
		conversation: classify.NewConversationClassifier(),
		timeline: timeline.New(
			timeline.WithClock(t.now),
			timeline.WithLocation(t.loc),
			timeline.WithRetention(t.retention),
		),
		convState: domain.ConversationSilent,
		convSince: started,
		lastSeen:  started,
	}
	s.engine = scoring.NewEngine(userID, t.store, t.cache,
		scoring.WithLogger(t.logger),
		scoring.WithAlpha(t.alpha),
		scoring.WithClock(t.now),
		scoring.WithLocation(t.loc),
	)
	s.reading = Reading{
		UserID:       userID,
		Timestamp:    started,
		Activity:     domain.ActivityUnknown,
		Conversation: domain.ConversationSilent,
		Location:     domain.LocationStationary,
	}
	return s
}

// Push appends a sensor sample to the session buffers.
func (s *Session) Push(sample sensing.Sample, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.buffers.Push(sample); err != nil {
		return err
	}
	s.lastSeen = now
	return nil
}

// Tick runs every classifier once over the current windows. Classifiers
// lacking data hold their previous output.
func (s *Session) Tick(now time.Time) Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := s.tickInterval
	if !s.lastTick.IsZero() {
		if d := now.Sub(s.lastTick); d > 0 {
			elapsed = d
		}
	}
	s.lastTick = now

	r := s.reading
	r.Timestamp = now

	if res, ok := s.activity.Classify(s.buffers.Accel(), s.buffers.Speed(), s.buffers.GPSAccuracy(), elapsed); ok {
		r.Activity, r.Confidence, r.ActivityHeld = res.Activity, res.Confidence, false
		if res.Changed {
			s.timeline.AddActivity(domain.ActivityEvent{Timestamp: now, Activity: res.Activity, Confidence: res.Confidence})
		}
	} else {
		r.ActivityHeld = true
	}

	state, ok := s.conversation.Classify(s.buffers.Audio())
	r.Conversation, r.ConversationHeld = state, !ok
	if state != s.convState {
		s.closeConversationRun(now)
		s.convState, s.convSince = state, now
	}

	if loc, ok := classify.ClassifyLocation(s.buffers.Speed(), s.buffers.GPSAccuracy()); ok {
		r.Location, r.LocationHeld = loc, false
	} else {
		r.LocationHeld = true
	}

	r.InactiveSeconds = s.activity.InactiveSeconds()
	r.Sleeping = classify.DetectSleep(classify.SleepInput{
		Now:             now.In(s.loc),
		InactiveSeconds: r.InactiveSeconds,
		RecentAudio:     s.buffers.RecentAudio(classify.SleepAudioWindow),
		RecentAccel:     s.buffers.RecentAccel(classify.SleepAccelWindow),
	})

	s.reading = r
	return r
}

// closeConversationRun records the state being left along with how long it lasted.
func (s *Session) closeConversationRun(now time.Time) {
	d := now.Sub(s.convSince)
	if d <= 0 {
		return
	}
	s.timeline.AddConversation(domain.ConversationEvent{
		Timestamp: s.convSince,
		State:     s.convState,
		Duration:  d.Seconds(),
	})
}

// Reading returns the state produced by the latest tick.
func (s *Session) Reading() Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reading
}

// Metrics integrates the timeline for the calendar day containing date.
func (s *Session) Metrics(date time.Time) domain.WellbeingMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.CalculateMetricsForDate(date)
}

// Score computes today's metrics and feeds them to the scoring engine. The
// session lock is released before the engine touches the store.
func (s *Session) Score(ctx context.Context, now time.Time) (domain.WellbeingScore, bool) {
	metrics := s.Metrics(now)
	return s.engine.UpdateScores(ctx, metrics)
}

// UpdateScores feeds explicit metrics to the scoring engine.
func (s *Session) UpdateScores(ctx context.Context, metrics domain.WellbeingMetrics) (domain.WellbeingScore, bool) {
	return s.engine.UpdateScores(ctx, metrics)
}

// Refresh reloads scores from the cache and store.
func (s *Session) Refresh(ctx context.Context) {
	s.engine.Refresh(ctx)
}

// Snapshot returns the scoring view.
func (s *Session) Snapshot() scoring.Snapshot {
	return s.engine.Snapshot()
}

// Activities returns the retained activity events.
func (s *Session) Activities() []domain.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Activities()
}

// Conversations returns the retained conversation events.
func (s *Session) Conversations() []domain.ConversationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Conversations()
}

// close flushes the open conversation run. Further closes are no-ops.
func (s *Session) close(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.closeConversationRun(now)
	s.convSince = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
