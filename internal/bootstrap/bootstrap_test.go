package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellbeing/internal/cache"
	"example.com/wellbeing/internal/config"
	"example.com/wellbeing/internal/persistence/memory"
)

func TestOpenFallsBackToMemory(t *testing.T) {
	b, err := Open(context.Background(), config.Config{})
	require.NoError(t, err)
	defer b.Close()

	require.Nil(t, b.Pool)
	require.IsType(t, &memory.Store{}, b.Store)
	require.IsType(t, &cache.MemoryStore{}, b.Cache)
}

func TestOpenUsesSQLiteCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cache.db")
	b, err := Open(context.Background(), config.Config{CachePath: path})
	require.NoError(t, err)
	defer b.Close()

	require.IsType(t, &cache.SQLiteStore{}, b.Cache)
	require.NoError(t, b.Cache.SetString(context.Background(), "k", "v"))
}

func TestTrackerAndScheduler(t *testing.T) {
	b, err := Open(context.Background(), config.Config{})
	require.NoError(t, err)
	defer b.Close()

	cfg := config.Config{
		TimeZone:        time.UTC,
		TickInterval:    time.Second,
		ScoringSchedule: "@every 5m",
		SmoothingAlpha:  0.3,
		EventRetention:  time.Hour,
	}
	tr := b.NewTracker(cfg)
	_, err = tr.Start(context.Background(), "user-1")
	require.NoError(t, err)

	s, err := NewScoringScheduler(cfg, tr)
	require.NoError(t, err)
	base := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	require.Equal(t, base.Add(5*time.Minute), s.Next(base))

	cfg.ScoringSchedule = "sometimes"
	_, err = NewScoringScheduler(cfg, tr)
	require.Error(t, err)
}
