package scheduler

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func quiet() Option { return WithLogger(log.New(io.Discard, "", 0)) }

func TestNewRejectsInvalidSchedule(t *testing.T) {
	_, err := New("every now and then", func(context.Context) error { return nil }, quiet())
	require.Error(t, err)
}

func TestNextFollowsSchedule(t *testing.T) {
	s, err := New("@every 5m", func(context.Context) error { return nil }, quiet(), WithLocation(time.UTC))
	require.NoError(t, err)

	base := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	require.Equal(t, base.Add(5*time.Minute), s.Next(base))

	s, err = New("0 30 * * * *", func(context.Context) error { return nil }, quiet(), WithLocation(time.UTC))
	require.NoError(t, err)
	require.Equal(t, base.Add(30*time.Minute), s.Next(base))
}

func TestRunFiresJobUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	s, err := New("@every 1s", func(context.Context) error {
		calls.Add(1)
		return errors.New("store offline")
	}, quiet())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	require.GreaterOrEqual(t, s.Runs(), int64(1))
}
