// Package replay drives a recorded sensor trace through a tracker session on a
// simulated clock. It backs the wellbeingctl replay command and end-to-end tests.
package replay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Trace is a scripted sequence of sensor segments for one user.
type Trace struct {
	User     string        `yaml:"user"`
	Start    time.Time     `yaml:"start"`
	Tick     time.Duration `yaml:"tick"`
	TimeZone string        `yaml:"timezone"`
	Segments []Segment     `yaml:"segments"`
}

// Segment repeats the same per-tick samples for Duration.
type Segment struct {
	Name     string        `yaml:"name"`
	Duration time.Duration `yaml:"duration"`
	// Accel samples cycle one per tick.
	Accel    []Vector `yaml:"accel"`
	Speed    *float64 `yaml:"speed"`
	Accuracy float64  `yaml:"accuracy"`
	// Audio levels cycle one per tick.
	Audio []float64 `yaml:"audio"`
}

// Vector is an accelerometer reading in g-units.
type Vector struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Decode parses a YAML trace and validates it.
func Decode(r io.Reader) (*Trace, error) {
	var tr Trace
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	if err := tr.normalize(); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Load reads a trace file.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Location resolves the trace time zone.
func (t *Trace) Location() (*time.Location, error) {
	if t.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(t.TimeZone)
}

func (t *Trace) normalize() error {
	t.User = strings.TrimSpace(t.User)
	if t.User == "" {
		t.User = "replay"
	}
	if t.Start.IsZero() {
		return errors.New("trace start is required")
	}
	if t.Tick <= 0 {
		t.Tick = time.Second
	}
	if _, err := t.Location(); err != nil {
		return fmt.Errorf("trace timezone: %w", err)
	}
	if len(t.Segments) == 0 {
		return errors.New("trace has no segments")
	}
	for i, seg := range t.Segments {
		if seg.Duration < t.Tick {
			return fmt.Errorf("segment %d (%s): duration %s is shorter than one tick", i, seg.Name, seg.Duration)
		}
	}
	return nil
}
