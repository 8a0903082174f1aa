package scoring

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"example.com/wellbeing/internal/domain"
)

const (
	// DefaultAlpha is the weight of the newest day in the running score.
	DefaultAlpha = 0.3
	// DefaultHistoryDays bounds the daily score list.
	DefaultHistoryDays = 30
)

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	Current           domain.WellbeingScore         `json:"current_scores"`
	Daily             []domain.DailyWellbeingScores `json:"daily_scores"`
	IsLoading         bool                          `json:"is_loading"`
	IsUsingSampleData bool                          `json:"is_using_sample_data"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger overrides the logger used to report sync failures.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithAlpha overrides the smoothing weight; values outside (0, 1] are ignored.
func WithAlpha(alpha float64) Option {
	return func(e *Engine) {
		if alpha > 0 && alpha <= 1 {
			e.alpha = alpha
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the time zone calendar days are keyed in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// Engine maintains one user's daily scores and smoothed running score. Local
// state is authoritative; the store and cache are written after every committed
// update and failures there never undo the local change.
type Engine struct {
	userID string
	store  domain.ScoreStore
	cache  domain.LocalCache
	logger *log.Logger
	alpha  float64
	now    func() time.Time
	loc    *time.Location

	// commitMu orders whole updates, including their cache and store writes.
	commitMu sync.Mutex

	mu       sync.RWMutex
	current  *domain.WellbeingScore
	base     *domain.WellbeingScore
	baseDate string
	daily    []domain.DailyWellbeingScores
	loading  bool
}

// NewEngine constructs an Engine for userID. store and cache may be nil.
func NewEngine(userID string, store domain.ScoreStore, cache domain.LocalCache, opts ...Option) *Engine {
	e := &Engine{
		userID: userID,
		store:  store,
		cache:  cache,
		logger: log.New(log.Writer(), "[scoring] ", log.LstdFlags|log.Lshortfile),
		alpha:  DefaultAlpha,
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UpdateScores folds a day of metrics into the running score. All-zero metrics
// are treated as "no data yet" and discarded; the boolean reports whether the
// update was committed.
func (e *Engine) UpdateScores(ctx context.Context, metrics domain.WellbeingMetrics) (domain.WellbeingScore, bool) {
	if !metrics.HasData() {
		discardedCounter.Inc()
		e.mu.RLock()
		defer e.mu.RUnlock()
		if e.current != nil {
			return *e.current, false
		}
		return domain.WellbeingScore{}, false
	}

	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	start := time.Now()
	now := e.now()

	e.mu.Lock()
	if e.current != nil && now.Before(e.current.LastUpdated) {
		now = e.current.LastUpdated
	}
	date := now.In(e.loc).Format(domain.DateLayout)
	today := DailyScores(date, metrics)
	if e.baseDate != date {
		e.base = copyScore(e.current)
		e.baseDate = date
	}
	next := domain.NewWellbeingScore(today.Sleep, today.PhysicalActivity, today.SocialInteraction, now)
	if prev := e.base; prev != nil {
		next = domain.NewWellbeingScore(
			Smooth(e.alpha, today.Sleep, prev.Sleep),
			Smooth(e.alpha, today.PhysicalActivity, prev.PhysicalActivity),
			Smooth(e.alpha, today.SocialInteraction, prev.SocialInteraction),
			now,
		)
	}
	e.current = &next
	e.daily = upsertDaily(e.daily, today)
	state := e.persistedStateLocked()
	e.mu.Unlock()

	committedCounter.Inc()
	recordScoreUpdated(now)

	e.writeCache(ctx, state)
	e.sync(ctx, today, next)
	updateDuration.Observe(time.Since(start).Seconds())
	return next, true
}

// Refresh reloads state from the local cache and the store, preferring the most
// recently updated source. Read failures are logged and leave the engine on
// whatever it already had, falling back to sample data.
func (e *Engine) Refresh(ctx context.Context) {
	e.mu.Lock()
	e.loading = true
	e.mu.Unlock()

	cached, cachedOK := e.readCache(ctx)

	var (
		stored      *domain.WellbeingScore
		storedDaily []domain.DailyWellbeingScores
	)
	if e.store != nil {
		var err error
		stored, err = e.store.GetCurrent(ctx, e.userID)
		if err != nil {
			e.logger.Printf("load current score failed (user=%s): %v", e.userID, err)
			syncFailureCounter.WithLabelValues("get_current").Inc()
			stored = nil
		}
		storedDaily, err = e.store.ListDaily(ctx, e.userID, DefaultHistoryDays)
		if err != nil {
			e.logger.Printf("load daily scores failed (user=%s): %v", e.userID, err)
			syncFailureCounter.WithLabelValues("list_daily").Inc()
			storedDaily = nil
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false

	daily := e.daily
	for _, d := range storedDaily {
		if validDaily(d) {
			daily = upsertDaily(daily, d)
		}
	}
	if cachedOK {
		for _, d := range cached.Daily {
			if validDaily(d) {
				daily = upsertDaily(daily, d)
			}
		}
	}
	e.daily = daily

	candidate := e.current
	fromStore := false
	if stored != nil && validScore(*stored) && newer(stored, candidate) {
		s := domain.NewWellbeingScore(stored.Sleep, stored.PhysicalActivity, stored.SocialInteraction, stored.LastUpdated)
		candidate = &s
		fromStore = true
	}
	if cachedOK && cached.Current != nil && validScore(*cached.Current) && newer(cached.Current, candidate) {
		s := domain.NewWellbeingScore(cached.Current.Sleep, cached.Current.PhysicalActivity, cached.Current.SocialInteraction, cached.Current.LastUpdated)
		candidate = &s
		fromStore = false
		e.base = copyScore(cached.Base)
		e.baseDate = cached.BaseDate
	}
	e.current = candidate
	if fromStore {
		e.rebaseLocked(candidate)
	}
}

// rebaseLocked recovers the smoothing base of a stored running score that
// already includes today's entry. The store keeps no base, so it is solved
// back out of the smoothing formula using today's daily scores. Without a
// daily entry for today the next update starts over from today's scores.
func (e *Engine) rebaseLocked(current *domain.WellbeingScore) {
	date := current.LastUpdated.In(e.loc).Format(domain.DateLayout)
	if date != e.now().In(e.loc).Format(domain.DateLayout) {
		return
	}
	e.baseDate = date
	e.base = nil
	if e.alpha >= 1 {
		return
	}
	for _, d := range e.daily {
		if d.Date != date {
			continue
		}
		base := domain.NewWellbeingScore(
			unsmooth(e.alpha, current.Sleep, d.Sleep),
			unsmooth(e.alpha, current.PhysicalActivity, d.PhysicalActivity),
			unsmooth(e.alpha, current.SocialInteraction, d.SocialInteraction),
			current.LastUpdated,
		)
		e.base = &base
		return
	}
}

// Snapshot returns the current view. Without any real score it returns the
// synthetic baseline flagged as sample data.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.current == nil {
		current, daily := SampleHistory(e.now().In(e.loc), SampleDays, e.alpha)
		return Snapshot{Current: current, Daily: daily, IsLoading: e.loading, IsUsingSampleData: true}
	}
	return Snapshot{
		Current:   *e.current,
		Daily:     append([]domain.DailyWellbeingScores(nil), e.daily...),
		IsLoading: e.loading,
	}
}

// Current returns the running score, or ErrScoreNotFound before the first update.
func (e *Engine) Current() (domain.WellbeingScore, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return domain.WellbeingScore{}, domain.ErrScoreNotFound
	}
	return *e.current, nil
}

func (e *Engine) sync(ctx context.Context, daily domain.DailyWellbeingScores, current domain.WellbeingScore) {
	if e.store == nil {
		return
	}
	if err := e.store.UpsertDaily(ctx, e.userID, daily); err != nil {
		e.logger.Printf("sync daily score failed (user=%s, date=%s): %v", e.userID, daily.Date, err)
		syncFailureCounter.WithLabelValues("upsert_daily").Inc()
	}
	if err := e.store.UpsertCurrent(ctx, e.userID, current); err != nil {
		e.logger.Printf("sync current score failed (user=%s): %v", e.userID, err)
		syncFailureCounter.WithLabelValues("upsert_current").Inc()
	}
}

// persistedState is the JSON document kept in the local cache.
type persistedState struct {
	Current  *domain.WellbeingScore        `json:"current,omitempty"`
	Base     *domain.WellbeingScore        `json:"base,omitempty"`
	BaseDate string                        `json:"base_date,omitempty"`
	Daily    []domain.DailyWellbeingScores `json:"daily"`
}

func (e *Engine) persistedStateLocked() persistedState {
	return persistedState{
		Current:  copyScore(e.current),
		Base:     copyScore(e.base),
		BaseDate: e.baseDate,
		Daily:    append([]domain.DailyWellbeingScores(nil), e.daily...),
	}
}

// CacheKey is the local cache key holding a user's scoring state.
func CacheKey(userID string) string {
	return "wellbeing:" + userID + ":scores"
}

func (e *Engine) writeCache(ctx context.Context, state persistedState) {
	if e.cache == nil {
		return
	}
	body, err := json.Marshal(state)
	if err != nil {
		e.logger.Printf("encode cached scores failed (user=%s): %v", e.userID, err)
		return
	}
	if err := e.cache.SetString(ctx, CacheKey(e.userID), string(body)); err != nil {
		e.logger.Printf("write cached scores failed (user=%s): %v", e.userID, err)
		syncFailureCounter.WithLabelValues("cache_write").Inc()
	}
}

func (e *Engine) readCache(ctx context.Context) (persistedState, bool) {
	if e.cache == nil {
		return persistedState{}, false
	}
	raw, ok, err := e.cache.GetString(ctx, CacheKey(e.userID))
	if err != nil {
		e.logger.Printf("read cached scores failed (user=%s): %v", e.userID, err)
		syncFailureCounter.WithLabelValues("cache_read").Inc()
		return persistedState{}, false
	}
	if !ok || raw == "" {
		return persistedState{}, false
	}
	var state persistedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		e.logger.Printf("discarding malformed cached scores (user=%s): %v", e.userID, err)
		return persistedState{}, false
	}
	return state, true
}

func upsertDaily(list []domain.DailyWellbeingScores, entry domain.DailyWellbeingScores) []domain.DailyWellbeingScores {
	out := make([]domain.DailyWellbeingScores, 0, len(list)+1)
	for _, d := range list {
		if d.Date != entry.Date {
			out = append(out, d)
		}
	}
	out = append(out, entry)
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if len(out) > DefaultHistoryDays {
		out = out[:DefaultHistoryDays]
	}
	return out
}

func validDaily(d domain.DailyWellbeingScores) bool {
	if _, err := time.Parse(domain.DateLayout, d.Date); err != nil {
		return false
	}
	return inRange(d.Sleep) && inRange(d.PhysicalActivity) && inRange(d.SocialInteraction)
}

func validScore(s domain.WellbeingScore) bool {
	return inRange(s.Sleep) && inRange(s.PhysicalActivity) && inRange(s.SocialInteraction)
}

func inRange(v float64) bool {
	return v >= 0 && v <= 100
}

func newer(candidate, existing *domain.WellbeingScore) bool {
	return existing == nil || candidate.LastUpdated.After(existing.LastUpdated)
}

func copyScore(s *domain.WellbeingScore) *domain.WellbeingScore {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
