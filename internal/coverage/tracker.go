package coverage

import "math"

// Sample is one playback-time notification from the player.
type Sample struct {
	CurrentTime float64
	Duration    float64
}

// Decision is the outcome of processing one sample.
type Decision struct {
	Percentage int
	Report     bool
}

// State is everything a session keeps between samples.
type State struct {
	Intervals    Set
	Percentage   int
	LastReported int
	// Ended pins Percentage at 100 for the rest of the session.
	Ended bool
}

// Step folds one sample into st. Samples without a usable duration (player
// metadata not loaded yet) leave the state untouched and never report.
func Step(st State, s Sample) (State, Decision) {
	if !usable(s) {
		return st, Decision{Percentage: st.Percentage}
	}

	next := st
	start := math.Max(0, s.CurrentTime-BackfillWindow)
	if s.CurrentTime > start {
		next.Intervals = st.Intervals.Insert(Interval{Start: start, End: s.CurrentTime})
	}
	next.Percentage = percentage(next.Intervals.Covered(), s.Duration)
	if st.Ended {
		next.Percentage = 100
	}

	report := shouldReport(next.Percentage, st.LastReported)
	if report {
		// Optimistic: a lost report is never resent, the next threshold
		// carries a higher value anyway.
		next.LastReported = next.Percentage
	}
	return next, Decision{Percentage: next.Percentage, Report: report}
}

// Ended marks the media as fully watched regardless of the intervals seen.
func Ended(st State) (State, Decision) {
	next := st
	next.Percentage = 100
	next.LastReported = 100
	next.Ended = true
	return next, Decision{Percentage: 100, Report: true}
}

func usable(s Sample) bool {
	if math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) || s.Duration <= 0 {
		return false
	}
	if math.IsNaN(s.CurrentTime) || math.IsInf(s.CurrentTime, 0) || s.CurrentTime < 0 {
		return false
	}
	return true
}

func percentage(covered, duration float64) int {
	p := int(math.Floor(100 * covered / duration))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// shouldReport emits on every multiple of 5, and on every increase once
// the viewer is at 90% or more.
func shouldReport(pct, last int) bool {
	return pct > last && (pct%5 == 0 || pct >= 90)
}

// Tracker is the stateful wrapper used by a single playback session.
// It is not safe for concurrent use.
type Tracker struct {
	st State
}

func NewTracker() *Tracker { return &Tracker{} }

func (t *Tracker) OnSample(currentTime, duration float64) Decision {
	var d Decision
	t.st, d = Step(t.st, Sample{CurrentTime: currentTime, Duration: duration})
	return d
}

func (t *Tracker) OnEnded() Decision {
	var d Decision
	t.st, d = Ended(t.st)
	return d
}

func (t *Tracker) Percentage() int { return t.st.Percentage }

// Intervals returns a copy of the current coverage set.
func (t *Tracker) Intervals() Set {
	out := make(Set, len(t.st.Intervals))
	copy(out, t.st.Intervals)
	return out
}

// State returns a snapshot of the tracker state.
func (t *Tracker) State() State {
	st := t.st
	st.Intervals = t.Intervals()
	return st
}
