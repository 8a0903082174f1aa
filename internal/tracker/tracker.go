package tracker

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"example.com/wellbeing/internal/classify"
	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/internal/scoring"
	"example.com/wellbeing/internal/sensing"
	"example.com/wellbeing/internal/timeline"
)

const (
	// DefaultTickInterval is the classification cadence.
	DefaultTickInterval = time.Second
	// DefaultIdleTimeout ends sessions that stop sending samples.
	DefaultIdleTimeout = 30 * time.Minute

	scoreConcurrency = 4
)

var (
	// ErrSessionNotFound indicates no session is active for the user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidUser indicates an empty user identifier.
	ErrInvalidUser = errors.New("user id is required")
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger overrides the tracker logger; sessions share it.
func WithLogger(logger *log.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLocation sets the time zone calendar days are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithTickInterval overrides the classification cadence.
func WithTickInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.tickInterval = d
		}
	}
}

// WithIdleTimeout overrides how long a silent session survives. Zero disables reaping.
func WithIdleTimeout(d time.Duration) Option {
	return func(t *Tracker) { t.idleTimeout = d }
}

// WithAlpha overrides the scoring smoothing weight.
func WithAlpha(alpha float64) Option {
	return func(t *Tracker) { t.alpha = alpha }
}

// WithRetention overrides how long timeline events are kept.
func WithRetention(d time.Duration) Option {
	return func(t *Tracker) { t.retention = d }
}

// WithActivityRules replaces the activity decision table.
func WithActivityRules(rules []classify.ActivityRule) Option {
	return func(t *Tracker) { t.rules = rules }
}

// Tracker is the registry of active sessions keyed by user id.
type Tracker struct {
	store        domain.ScoreStore
	cache        domain.LocalCache
	logger       *log.Logger
	now          func() time.Time
	loc          *time.Location
	tickInterval time.Duration
	idleTimeout  time.Duration
	alpha        float64
	retention    time.Duration
	rules        []classify.ActivityRule

	mu       sync.RWMutex
	sessions map[string]*Session
	// ending holds users whose session is committing its final score.
	ending map[string]chan struct{}
}

// New constructs a Tracker. store and cache may be nil.
func New(store domain.ScoreStore, cache domain.LocalCache, opts ...Option) *Tracker {
	t := &Tracker{
		store:        store,
		cache:        cache,
		logger:       log.New(log.Writer(), "[tracker] ", log.LstdFlags|log.Lshortfile),
		now:          time.Now,
		loc:          time.Local,
		tickInterval: DefaultTickInterval,
		idleTimeout:  DefaultIdleTimeout,
		alpha:        scoring.DefaultAlpha,
		retention:    timeline.DefaultRetention,
		sessions:     make(map[string]*Session),
		ending:       make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Now returns the tracker clock in its configured time zone.
func (t *Tracker) Now() time.Time {
	return t.now().In(t.loc)
}

// Location returns the time zone calendar days are evaluated in.
func (t *Tracker) Location() *time.Location {
	return t.loc
}

// Start opens a session for userID, loading persisted scores. Starting an
// already active user returns the existing session. A user whose previous
// session is still ending waits for its final score to be committed.
func (t *Tracker) Start(ctx context.Context, userID string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUser
	}

	t.mu.Lock()
	for {
		if s, ok := t.sessions[userID]; ok {
			t.mu.Unlock()
			return s, nil
		}
		done, ok := t.ending[userID]
		if !ok {
			break
		}
		t.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		t.mu.Lock()
	}
	s := newSession(userID, t.now(), t)
	t.sessions[userID] = s
	activeSessions.Set(float64(len(t.sessions)))
	t.mu.Unlock()

	s.Refresh(ctx)
	t.logger.Printf("session started (user=%s, session=%s)", userID, s.ID)
	return s, nil
}

// Get returns the active session for userID.
func (t *Tracker) Get(userID string) (*Session, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End closes the session for userID, flushing the open conversation run and
// committing a final score update.
func (t *Tracker) End(ctx context.Context, userID string) error {
	done := make(chan struct{})
	t.mu.Lock()
	s, ok := t.sessions[userID]
	if ok {
		delete(t.sessions, userID)
		t.ending[userID] = done
		activeSessions.Set(float64(len(t.sessions)))
	}
	t.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	defer func() {
		t.mu.Lock()
		delete(t.ending, userID)
		t.mu.Unlock()
		close(done)
	}()

	now := t.now()
	s.close(now)
	s.Score(ctx, now)
	t.logger.Printf("session ended (user=%s, session=%s)", userID, s.ID)
	return nil
}

// Push routes a sample to the user's session.
func (t *Tracker) Push(userID string, sample sensing.Sample) error {
	s, err := t.Get(userID)
	if err != nil {
		return err
	}
	return s.Push(sample, t.now())
}

// IngestResult counts the samples of a batch that were buffered or rejected.
type IngestResult struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// Ingest pushes a batch of samples to the user's session. Invalid samples are
// counted and skipped; the rest of the batch is still buffered.
func (t *Tracker) Ingest(userID string, samples []sensing.Sample) (IngestResult, error) {
	s, err := t.Get(userID)
	if err != nil {
		return IngestResult{}, err
	}
	now := t.now()
	var res IngestResult
	for _, sample := range samples {
		if err := s.Push(sample, now); err != nil {
			res.Rejected++
			continue
		}
		res.Accepted++
	}
	return res, nil
}

// PushAccel appends an accelerometer reading in g-units.
func (t *Tracker) PushAccel(userID string, x, y, z float64) error {
	return t.Push(userID, sensing.Sample{Stream: sensing.StreamAccelerometer, Timestamp: t.now(), X: x, Y: y, Z: z})
}

// PushLocation appends a GPS fix; accuracy 0 means no fix.
func (t *Tracker) PushLocation(userID string, speed, accuracy float64) error {
	return t.Push(userID, sensing.Sample{Stream: sensing.StreamLocation, Timestamp: t.now(), Speed: speed, Accuracy: accuracy})
}

// PushAudio appends an audio level.
func (t *Tracker) PushAudio(userID string, level float64) error {
	return t.Push(userID, sensing.Sample{Stream: sensing.StreamAudio, Timestamp: t.now(), Level: level})
}

// Sessions returns the active sessions ordered by user id.
func (t *Tracker) Sessions() []*Session {
	t.mu.RLock()
	out := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// TickAll runs one classification tick on every session.
func (t *Tracker) TickAll(now time.Time) []Reading {
	sessions := t.Sessions()
	readings := make([]Reading, 0, len(sessions))
	for _, s := range sessions {
		readings = append(readings, s.Tick(now))
	}
	ticksCounter.Add(float64(len(sessions)))
	return readings
}

// ScoreAll pushes today's metrics of every session into its scoring engine.
func (t *Tracker) ScoreAll(ctx context.Context) error {
	now := t.now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scoreConcurrency)
	for _, s := range t.Sessions() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.Score(ctx, now)
			return nil
		})
	}
	return g.Wait()
}

// ReapIdle ends sessions that have not received a sample within the idle timeout.
func (t *Tracker) ReapIdle(ctx context.Context, now time.Time) int {
	if t.idleTimeout <= 0 {
		return 0
	}
	reaped := 0
	for _, s := range t.Sessions() {
		if now.Sub(s.idleSince()) < t.idleTimeout {
			continue
		}
		if err := t.End(ctx, s.UserID); err == nil {
			reaped++
			reapedCounter.Inc()
		}
	}
	return reaped
}

// Run ticks every session at the configured interval until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := t.now()
			t.TickAll(now)
			if n := t.ReapIdle(ctx, now); n > 0 {
				t.logger.Printf("reaped %d idle sessions", n)
			}
		}
	}
}

// Shutdown ends every session, committing final scores.
func (t *Tracker) Shutdown(ctx context.Context) {
	for _, s := range t.Sessions() {
		if err := t.End(ctx, s.UserID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			t.logger.Printf("end session failed (user=%s): %v", s.UserID, err)
		}
	}
}
