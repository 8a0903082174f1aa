//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/pkg/events"
)

func TestRepositoryRoundTripAndOutbox(t *testing.T) {
	ctx := context.Background()
	connStr := startPostgres(t, ctx)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewRepository(pool)
	userID := uuid.NewString()

	missing, err := repo.GetCurrent(ctx, userID)
	require.NoError(t, err)
	require.Nil(t, missing)

	now := time.Now().UTC().Truncate(time.Microsecond)
	score := domain.NewWellbeingScore(70, 60, 50, now)
	require.NoError(t, repo.UpsertCurrent(ctx, userID, score))

	stale := domain.NewWellbeingScore(10, 10, 10, now.Add(-time.Hour))
	require.NoError(t, repo.UpsertCurrent(ctx, userID, stale))

	stored, err := repo.GetCurrent(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.InDelta(t, 60, stored.Overall, 1e-9)
	require.True(t, now.Equal(stored.LastUpdated))

	require.NoError(t, repo.UpsertDaily(ctx, userID, domain.DailyWellbeingScores{Date: "2026-06-09", Sleep: 40, PhysicalActivity: 50, SocialInteraction: 60}))
	require.NoError(t, repo.UpsertDaily(ctx, userID, domain.DailyWellbeingScores{Date: "2026-06-10", Sleep: 80, PhysicalActivity: 80, SocialInteraction: 80}))
	require.NoError(t, repo.UpsertDaily(ctx, userID, domain.DailyWellbeingScores{Date: "2026-06-10", Sleep: 90, PhysicalActivity: 80, SocialInteraction: 80}))
	require.NoError(t, repo.UpsertDaily(ctx, userID, domain.DailyWellbeingScores{Date: "2026-06-10", Sleep: 90, PhysicalActivity: 80, SocialInteraction: 80}))

	days, err := repo.ListDaily(ctx, userID, 30)
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Equal(t, "2026-06-10", days[0].Date)
	require.Equal(t, 90.0, days[0].Sleep)

	var updated, daily int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE user_id=$1 AND event_type=$2`, userID, events.TypeScoreUpdated).Scan(&updated))
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE user_id=$1 AND event_type=$2`, userID, events.TypeDailyScored).Scan(&daily))
	require.Equal(t, 1, updated, "stale write must not emit an event")
	require.Equal(t, 3, daily, "unchanged daily scores must not emit an event")

	other, err := repo.GetCurrent(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Nil(t, other)
}

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("wellbeing"),
		postgrescontainer.WithUsername("wellbeing"),
		postgrescontainer.WithPassword("wellbeing"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)
	return connStr
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	contents, err := os.ReadFile(resolvePath(t, "../../../db/postgres/migrations/0001_init.up.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(contents))
	require.NoError(t, err)
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
