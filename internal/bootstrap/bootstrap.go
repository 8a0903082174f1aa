// Package bootstrap opens the storage backends shared by the service binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/wellbeing/internal/cache"
	"example.com/wellbeing/internal/config"
	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/internal/persistence/memory"
	"example.com/wellbeing/internal/persistence/postgres"
	"example.com/wellbeing/internal/scheduler"
	"example.com/wellbeing/internal/tracker"
)

// Backends bundles the score store and local cache chosen by configuration.
// Pool is nil when scores are kept in memory.
type Backends struct {
	Pool  *pgxpool.Pool
	Store domain.ScoreStore
	Cache domain.LocalCache

	closers []func() error
}

// Open connects to Postgres when POSTGRES_URL is set and opens the SQLite cache
// when CACHE_PATH is set. Either falls back to an in-memory implementation.
func Open(ctx context.Context, cfg config.Config) (*Backends, error) {
	b := &Backends{}

	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		b.Pool = pool
		b.Store = postgres.NewRepository(pool)
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
	} else {
		log.Printf("POSTGRES_URL not set; scores are kept in memory")
		b.Store = memory.NewStore()
	}

	if cfg.CachePath != "" {
		store, err := cache.OpenSQLite(ctx, cfg.CachePath)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("open local cache: %w", err)
		}
		b.Cache = store
		b.closers = append(b.closers, store.Close)
	} else {
		b.Cache = cache.NewMemory()
	}
	return b, nil
}

// Close releases every backend in reverse order of opening.
func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Printf("close backend: %v", err)
		}
	}
	b.closers = nil
}

// NewTracker builds a tracker configured from cfg on top of the backends.
func (b *Backends) NewTracker(cfg config.Config) *tracker.Tracker {
	return tracker.New(b.Store, b.Cache,
		tracker.WithLocation(cfg.TimeZone),
		tracker.WithTickInterval(cfg.TickInterval),
		tracker.WithIdleTimeout(cfg.SessionIdleTimeout),
		tracker.WithAlpha(cfg.SmoothingAlpha),
		tracker.WithRetention(cfg.EventRetention),
	)
}

// NewScoringScheduler runs tr.ScoreAll on the configured schedule.
func NewScoringScheduler(cfg config.Config, tr *tracker.Tracker) (*scheduler.Scheduler, error) {
	return scheduler.New(cfg.ScoringSchedule, tr.ScoreAll, scheduler.WithLocation(cfg.TimeZone))
}
