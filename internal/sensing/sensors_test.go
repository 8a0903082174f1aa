package sensing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRingDropsOldestWhenFull(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}

	require.Equal(t, 3, r.Len())
	require.Equal(t, []int{3, 4, 5}, r.Snapshot())
	require.Equal(t, []int{4, 5}, r.Last(2))

	newest, ok := r.Newest()
	require.True(t, ok)
	require.Equal(t, 5, newest)
}

func TestRingSnapshotIsACopy(t *testing.T) {
	r := NewRing[float64](2)
	r.Push(1)
	snap := r.Snapshot()
	snap[0] = 42

	require.Equal(t, []float64{1}, r.Snapshot())
}

func TestRingEmpty(t *testing.T) {
	r := NewRing[float64](4)
	require.Nil(t, r.Snapshot())
	_, ok := r.Newest()
	require.False(t, ok)

	r.Push(1)
	r.Reset()
	require.Zero(t, r.Len())
}

func TestBuffersAccelMagnitude(t *testing.T) {
	b := NewBuffers()
	require.NoError(t, b.PushAccel(0, 0, 1))
	require.NoError(t, b.PushAccel(3, 4, 0))

	require.Equal(t, []float64{1, 5}, b.Accel())
}

func TestBuffersSmoothSpeedAndKeepAccuracy(t *testing.T) {
	b := NewBuffers()
	require.NoError(t, b.PushLocation(3, 12))
	require.NoError(t, b.PushLocation(0, 0))
	require.NoError(t, b.PushLocation(-1, 40))

	require.InDeltaSlice(t, []float64{3, 1.5, 1}, b.Speed(), 1e-9)
	require.Equal(t, 40.0, b.GPSAccuracy())
}

func TestBuffersRejectInvalidSamples(t *testing.T) {
	b := NewBuffers()
	require.ErrorIs(t, b.PushAccel(math.NaN(), 0, 0), ErrInvalidSample)
	require.ErrorIs(t, b.Push(Sample{Stream: "gyroscope"}), ErrUnknownStream)
	require.Empty(t, b.Accel())
}

func TestBuffersPushRoutesByStream(t *testing.T) {
	b := NewBuffers()
	ts := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

	require.NoError(t, b.Push(Sample{Stream: StreamAudio, Timestamp: ts, Level: 33}))
	require.NoError(t, b.Push(Sample{Stream: StreamAccelerometer, Timestamp: ts.Add(-time.Second), Z: 1}))

	require.Equal(t, []float64{33}, b.Audio())
	require.Equal(t, []float64{1}, b.RecentAccel(5))
	require.Equal(t, ts, b.LastSampleAt())
}

func TestStats(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	require.InDelta(t, 5.0, Mean(values), 1e-9)
	require.InDelta(t, 2.0, StdDev(values), 1e-9)
	require.Equal(t, 9.0, Max(values))
	require.Zero(t, StdDev(nil))
}
