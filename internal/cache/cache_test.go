package cache

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/wellbeing/internal/domain"
)

var (
	_ domain.LocalCache = (*SQLiteStore)(nil)
	_ domain.LocalCache = (*MemoryStore)(nil)
)

func openTemp(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), path, WithLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)
	return store
}

func TestSQLiteRoundTripAndOverwrite(t *testing.T) {
	ctx := context.Background()
	store := openTemp(t, filepath.Join(t.TempDir(), "cache.db"))
	defer store.Close()

	_, ok, err := store.GetString(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetString(ctx, "wellbeing:alice:scores", `{"daily":[]}`))
	require.NoError(t, store.SetString(ctx, "wellbeing:alice:scores", `{"daily":[1]}`))

	v, ok, err := store.GetString(ctx, "wellbeing:alice:scores")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"daily":[1]}`, v)

	require.NoError(t, store.Delete(ctx, "wellbeing:alice:scores"))
	_, ok, err = store.GetString(ctx, "wellbeing:alice:scores")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	first := openTemp(t, path)
	require.NoError(t, first.SetString(ctx, "k", "v"))
	require.NoError(t, first.Close())

	second := openTemp(t, path)
	defer second.Close()
	v, ok, err := second.GetString(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SetString(ctx, "k", "v"))
	v, ok, err := m.GetString(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.GetString(ctx, "k")
	require.False(t, ok)
}
