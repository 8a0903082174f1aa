package sensing

import (
	"errors"
	"math"
	"time"
)

// Window capacities per stream.
const (
	AccelWindow       = 30
	SpeedWindow       = 10
	AudioWindow       = 50
	speedSmoothWindow = 3
)

// Stream names accepted from sensor sources.
const (
	StreamAccelerometer = "accelerometer"
	StreamLocation      = "location"
	StreamAudio         = "audio"
)

var (
	// ErrInvalidSample is returned for samples carrying NaN or infinite readings.
	ErrInvalidSample = errors.New("invalid sensor sample")
	// ErrUnknownStream is returned for samples addressed to an unsupported stream.
	ErrUnknownStream = errors.New("unknown sensor stream")
)

// Sample is one timestamped reading from a device sensor.
type Sample struct {
	Stream    string    `json:"stream" yaml:"stream"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	X         float64   `json:"x,omitempty" yaml:"x"`
	Y         float64   `json:"y,omitempty" yaml:"y"`
	Z         float64   `json:"z,omitempty" yaml:"z"`
	Speed     float64   `json:"speed,omitempty" yaml:"speed"`
	Accuracy  float64   `json:"accuracy,omitempty" yaml:"accuracy"`
	Level     float64   `json:"level,omitempty" yaml:"level"`
}

// Buffers owns the rolling windows of one user session. It is not safe for
// concurrent use; the owning session serializes access.
type Buffers struct {
	accel      *Ring[float64]
	speed      *Ring[float64]
	rawSpeed   *Ring[float64]
	audio      *Ring[float64]
	accuracy   float64
	lastSample time.Time
}

// NewBuffers allocates the per-stream windows.
func NewBuffers() *Buffers {
	return &Buffers{
		accel:    NewRing[float64](AccelWindow),
		speed:    NewRing[float64](SpeedWindow),
		rawSpeed: NewRing[float64](speedSmoothWindow),
		audio:    NewRing[float64](AudioWindow),
	}
}

// Push routes a sample to the window of its stream.
func (b *Buffers) Push(s Sample) error {
	var err error
	switch s.Stream {
	case StreamAccelerometer:
		err = b.PushAccel(s.X, s.Y, s.Z)
	case StreamLocation:
		err = b.PushLocation(s.Speed, s.Accuracy)
	case StreamAudio:
		err = b.PushAudio(s.Level)
	default:
		err = ErrUnknownStream
	}
	if err != nil {
		recordInvalid(s.Stream)
		return err
	}
	recordIngested(s.Stream)
	if s.Timestamp.After(b.lastSample) {
		b.lastSample = s.Timestamp
	}
	return nil
}

// PushAccel stores the magnitude of an acceleration vector in g.
func (b *Buffers) PushAccel(x, y, z float64) error {
	if !finite(x, y, z) {
		return ErrInvalidSample
	}
	b.accel.Push(math.Sqrt(x*x + y*y + z*z))
	return nil
}

// PushLocation stores a smoothed GPS speed and keeps the latest accuracy.
// Negative speeds mean the fix carried no speed and are treated as zero.
func (b *Buffers) PushLocation(speed, accuracy float64) error {
	if !finite(speed, accuracy) {
		return ErrInvalidSample
	}
	if speed < 0 {
		speed = 0
	}
	b.rawSpeed.Push(speed)
	b.speed.Push(Mean(b.rawSpeed.Snapshot()))
	if accuracy > 0 {
		b.accuracy = accuracy
	}
	return nil
}

// PushAudio stores a microphone level reading.
func (b *Buffers) PushAudio(level float64) error {
	if !finite(level) {
		return ErrInvalidSample
	}
	if level < 0 {
		level = 0
	}
	b.audio.Push(level)
	return nil
}

// Accel returns the acceleration magnitude window oldest-first.
func (b *Buffers) Accel() []float64 { return b.accel.Snapshot() }

// RecentAccel returns the newest n acceleration magnitudes.
func (b *Buffers) RecentAccel(n int) []float64 { return b.accel.Last(n) }

// Speed returns the smoothed speed window oldest-first.
func (b *Buffers) Speed() []float64 { return b.speed.Snapshot() }

// Audio returns the audio level window oldest-first.
func (b *Buffers) Audio() []float64 { return b.audio.Snapshot() }

// RecentAudio returns the newest n audio levels.
func (b *Buffers) RecentAudio(n int) []float64 { return b.audio.Last(n) }

// GPSAccuracy returns the latest reported GPS accuracy in metres, zero when no fix was seen.
func (b *Buffers) GPSAccuracy() float64 { return b.accuracy }

// LastSampleAt returns the newest sample timestamp seen.
func (b *Buffers) LastSampleAt() time.Time { return b.lastSample }

// Mean returns the arithmetic mean, zero for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var acc float64
	for _, v := range values {
		d := v - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(values)))
}

// Max returns the largest value, zero for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
