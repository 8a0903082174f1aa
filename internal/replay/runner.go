package replay

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"example.com/wellbeing/internal/cache"
	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/internal/persistence/memory"
	"example.com/wellbeing/internal/scoring"
	"example.com/wellbeing/internal/sensing"
	"example.com/wellbeing/internal/tracker"
)

// Transition records a tick at which the visible reading changed.
type Transition struct {
	At           time.Time                `json:"at"`
	Segment      string                   `json:"segment,omitempty"`
	Activity     domain.Activity          `json:"activity"`
	Conversation domain.ConversationState `json:"conversation"`
	Location     domain.Location          `json:"location"`
	Sleeping     bool                     `json:"sleeping"`
}

// Result summarises a replay run.
type Result struct {
	User          string                     `json:"user"`
	Ticks         int                        `json:"ticks"`
	Transitions   []Transition               `json:"transitions"`
	Activities    []domain.ActivityEvent     `json:"activities"`
	Conversations []domain.ConversationEvent `json:"conversations"`
	Metrics       domain.WellbeingMetrics    `json:"metrics"`
	Scores        scoring.Snapshot           `json:"scores"`
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *log.Logger
	alpha  float64
	store  domain.ScoreStore
	cache  domain.LocalCache
}

// WithLogger routes tracker logs to logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *runConfig) { c.logger = logger }
}

// WithAlpha overrides the scoring smoothing weight.
func WithAlpha(alpha float64) Option {
	return func(c *runConfig) { c.alpha = alpha }
}

// WithStore scores against store instead of a fresh in-memory store.
func WithStore(store domain.ScoreStore) Option {
	return func(c *runConfig) { c.store = store }
}

// WithCache persists engine state to c instead of a fresh in-memory cache.
func WithCache(lc domain.LocalCache) Option {
	return func(c *runConfig) { c.cache = lc }
}

type simClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *simClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Run plays trace through a fresh tracker and returns what the session observed.
// The session is ended at the end of the trace, committing a final score.
func Run(ctx context.Context, trace *Trace, opts ...Option) (*Result, error) {
	cfg := runConfig{
		logger: log.New(io.Discard, "", 0),
		alpha:  scoring.DefaultAlpha,
		store:  memory.NewStore(),
		cache:  cache.NewMemory(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	loc, err := trace.Location()
	if err != nil {
		return nil, err
	}
	clock := &simClock{now: trace.Start}
	tr := tracker.New(cfg.store, cfg.cache,
		tracker.WithLogger(cfg.logger),
		tracker.WithClock(clock.Now),
		tracker.WithLocation(loc),
		tracker.WithTickInterval(trace.Tick),
		tracker.WithIdleTimeout(0),
		tracker.WithAlpha(cfg.alpha),
	)

	session, err := tr.Start(ctx, trace.User)
	if err != nil {
		return nil, err
	}

	res := &Result{User: trace.User}
	var (
		last    Transition
		hasLast bool
	)
	now := trace.Start
	for _, seg := range trace.Segments {
		ticks := int(seg.Duration / trace.Tick)
		for i := 0; i < ticks; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			now = now.Add(trace.Tick)
			clock.Set(now)
			if _, err := tr.Ingest(trace.User, seg.samplesAt(i, now)); err != nil {
				return nil, err
			}
			reading := session.Tick(now)
			res.Ticks++

			tn := Transition{
				At:           now,
				Segment:      seg.Name,
				Activity:     reading.Activity,
				Conversation: reading.Conversation,
				Location:     reading.Location,
				Sleeping:     reading.Sleeping,
			}
			if !hasLast || !sameState(last, tn) {
				res.Transitions = append(res.Transitions, tn)
				last, hasLast = tn, true
			}
		}
	}

	if err := tr.End(ctx, trace.User); err != nil {
		return nil, err
	}
	res.Activities = session.Activities()
	res.Conversations = session.Conversations()
	res.Metrics = session.Metrics(now)
	res.Scores = session.Snapshot()
	return res, nil
}

func (s Segment) samplesAt(i int, now time.Time) []sensing.Sample {
	var out []sensing.Sample
	if len(s.Accel) > 0 {
		v := s.Accel[i%len(s.Accel)]
		out = append(out, sensing.Sample{Stream: sensing.StreamAccelerometer, Timestamp: now, X: v.X, Y: v.Y, Z: v.Z})
	}
	if s.Speed != nil {
		out = append(out, sensing.Sample{Stream: sensing.StreamLocation, Timestamp: now, Speed: *s.Speed, Accuracy: s.Accuracy})
	}
	if len(s.Audio) > 0 {
		out = append(out, sensing.Sample{Stream: sensing.StreamAudio, Timestamp: now, Level: s.Audio[i%len(s.Audio)]})
	}
	return out
}

func sameState(a, b Transition) bool {
	return a.Activity == b.Activity &&
		a.Conversation == b.Conversation &&
		a.Location == b.Location &&
		a.Sleeping == b.Sleeping
}
