// Package trace describes scripted viewings used to exercise the tracker
// and the report path end to end.
package trace

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/mediawatch/internal/playback"
)

// DefaultStep matches the typical timeupdate cadence of browser players.
const DefaultStep = 0.25

// Segment is a stretch of continuous playback from From to To seconds.
// From == To is a single sample, e.g. right after a seek.
type Segment struct {
	From float64 `yaml:"from"`
	To   float64 `yaml:"to"`
}

type Trace struct {
	Name     string    `yaml:"name"`
	ModuleID int64     `yaml:"module_id"`
	Duration float64   `yaml:"duration"`
	Step     float64   `yaml:"step"`
	Segments []Segment `yaml:"segments"`
	Ended    bool      `yaml:"ended"`
}

func Load(path string) (Trace, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Trace{}, fmt.Errorf("read trace: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (Trace, error) {
	var t Trace
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Trace{}, fmt.Errorf("parse trace yaml: %w", err)
	}
	if t.Step <= 0 {
		t.Step = DefaultStep
	}
	if err := t.Validate(); err != nil {
		return Trace{}, err
	}
	return t, nil
}

func (t Trace) Validate() error {
	if t.ModuleID <= 0 {
		return errors.New("trace: module_id must be positive")
	}
	if t.Duration <= 0 {
		return errors.New("trace: duration must be positive")
	}
	for i, s := range t.Segments {
		if s.From < 0 || s.To < s.From {
			return fmt.Errorf("trace: segment %d: need 0 <= from <= to", i)
		}
	}
	return nil
}

// Events expands the trace into the player notifications it describes.
func (t Trace) Events() []playback.Event {
	step := t.Step
	if step <= 0 {
		step = DefaultStep
	}
	var out []playback.Event
	for _, s := range t.Segments {
		n := int((s.To - s.From) / step)
		for i := 0; i <= n; i++ {
			out = append(out, playback.Event{Kind: playback.TimeUpdate, CurrentTime: s.From + float64(i)*step, Duration: t.Duration})
		}
		if last := s.From + float64(n)*step; last < s.To {
			out = append(out, playback.Event{Kind: playback.TimeUpdate, CurrentTime: s.To, Duration: t.Duration})
		}
	}
	if t.Ended {
		out = append(out, playback.Event{Kind: playback.Ended, Duration: t.Duration})
	}
	return out
}
