// Package coverage turns a stream of playback-time samples into a watched
// coverage percentage and decides when that percentage is worth reporting.
//
// The core is pure: Step and Ended take a State and return a new one, so a
// session can be replayed deterministically without a player or a network.
package coverage

import "sort"

const (
	// BackfillWindow approximates the gap between two playback-time
	// notifications. Each sample is credited with this much time behind it.
	BackfillWindow = 0.5
	// MergeTolerance is the largest gap between two intervals that is still
	// treated as continuous viewing (sampling jitter, tiny seeks).
	MergeTolerance = 0.5
)

// Interval is a half-open range [Start, End) of media time in seconds.
type Interval struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Duration returns End-Start, or 0 for an empty interval.
func (i Interval) Duration() float64 {
	if i.End <= i.Start {
		return 0
	}
	return i.End - i.Start
}

// Set is a sorted sequence of strictly separated intervals.
type Set []Interval

// Merge sorts intervals by start and collapses every interval that begins
// within MergeTolerance of the running interval's end. The input slice is
// not modified. Merge(Merge(x)) equals Merge(x).
func Merge(intervals []Interval) Set {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.End > iv.Start {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].Start != sorted[b].Start {
			return sorted[a].Start < sorted[b].Start
		}
		return sorted[a].End < sorted[b].End
	})

	out := make(Set, 0, len(sorted))
	running := sorted[0]
	for _, iv := range sorted[1:] {
		if iv.Start <= running.End+MergeTolerance {
			if iv.End > running.End {
				running.End = iv.End
			}
			continue
		}
		out = append(out, running)
		running = iv
	}
	return append(out, running)
}

// Insert returns a new merged set containing iv.
func (s Set) Insert(iv Interval) Set {
	all := make([]Interval, 0, len(s)+1)
	all = append(all, s...)
	all = append(all, iv)
	return Merge(all)
}

// Covered sums the durations of all intervals in the set.
func (s Set) Covered() float64 {
	total := 0.0
	for _, iv := range s {
		total += iv.Duration()
	}
	return total
}
