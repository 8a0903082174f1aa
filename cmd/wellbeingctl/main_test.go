package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	out, err := execute(t, "score", "--sleep-hours", "7", "--active-minutes", "20", "--social-minutes", "40")
	require.NoError(t, err)
	require.Contains(t, out, "overall")
	require.Contains(t, out, "80.0")

	_, err = execute(t, "score", "--sleep-hours", "-1")
	require.Error(t, err)
}

func TestBaselineCommand(t *testing.T) {
	out, err := execute(t, "baseline", "--end", "2026-06-10", "--days", "3", "--alpha", "0.3")
	require.NoError(t, err)
	require.Contains(t, out, "2026-06-10")
	require.Contains(t, out, "2026-06-08")
	require.NotContains(t, out, "2026-06-07")

	_, err = execute(t, "baseline", "--days", "0", "--end", "", "--alpha", "0.3")
	require.Error(t, err)
}

func TestReplayCommand(t *testing.T) {
	trace := filepath.Join("..", "..", "internal", "replay", "testdata", "walk_and_talk.yaml")
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	out, err := execute(t, "replay", trace, "--cache", cachePath, "--json=false")
	require.NoError(t, err)
	require.Contains(t, out, "user alice, 180 ticks")
	require.Contains(t, out, "walking")

	out, err = execute(t, "replay", trace, "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"transitions"`)

	_, err = execute(t, "replay", filepath.Join(t.TempDir(), "missing.yaml"), "--json=false")
	require.Error(t, err)
}
