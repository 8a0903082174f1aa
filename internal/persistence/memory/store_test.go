package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/wellbeing/internal/domain"
)

var _ domain.ScoreStore = (*Store)(nil)

func TestCurrentIgnoresOlderWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	missing, err := store.GetCurrent(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, missing)

	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertCurrent(ctx, "alice", domain.NewWellbeingScore(60, 60, 60, now)))
	require.NoError(t, store.UpsertCurrent(ctx, "alice", domain.NewWellbeingScore(10, 10, 10, now.Add(-time.Hour))))

	got, err := store.GetCurrent(ctx, "alice")
	require.NoError(t, err)
	require.InDelta(t, 60, got.Overall, 1e-9)
}

func TestListDailyNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	for _, date := range []string{"2026-06-08", "2026-06-10", "2026-06-09"} {
		require.NoError(t, store.UpsertDaily(ctx, "alice", domain.DailyWellbeingScores{Date: date, Sleep: 50}))
	}
	require.NoError(t, store.UpsertDaily(ctx, "alice", domain.DailyWellbeingScores{Date: "2026-06-09", Sleep: 90}))

	days, err := store.ListDaily(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Equal(t, "2026-06-10", days[0].Date)
	require.Equal(t, "2026-06-09", days[1].Date)
	require.Equal(t, 90.0, days[1].Sleep)

	other, err := store.ListDaily(ctx, "bob", 10)
	require.NoError(t, err)
	require.Empty(t, other)
}
