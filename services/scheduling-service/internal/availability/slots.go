package availability

import (
	"sort"
	"time"
)

// Interval is a half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two half-open ranges share any instant.
// Touching ranges (a.End == b.Start) do not overlap.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

func (iv Interval) empty() bool { return !iv.End.After(iv.Start) }

// merge sorts busy by start and folds overlapping or touching ranges together.
// Empty ranges are dropped. The input slice is not modified.
func merge(busy []Interval) []Interval {
	in := make([]Interval, 0, len(busy))
	for _, b := range busy {
		if !b.empty() {
			in = append(in, b)
		}
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Start.Before(in[j].Start) })

	out := in[:0]
	for _, b := range in {
		if n := len(out); n > 0 && !b.Start.After(out[n-1].End) {
			if b.End.After(out[n-1].End) {
				out[n-1].End = b.End
			}
			continue
		}
		out = append(out, b)
	}
	return out
}

// Slots walks [windowStart, windowEnd) in step increments and returns every
// start whose [t, t+duration) fits the window and clears all busy ranges.
// Candidates before notBefore are skipped; the zero time keeps them all.
//
// Callers pass times in one location so the walk lines up with local clock
// minutes.
func Slots(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval, notBefore time.Time) []time.Time {
	if duration <= 0 || step <= 0 || windowStart.Add(duration).After(windowEnd) {
		return nil
	}

	merged := merge(busy)
	next := 0
	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		cand := Interval{Start: t, End: t.Add(duration)}
		// Candidates only move forward, so ranges that end at or before t are
		// finished with.
		for next < len(merged) && !merged[next].End.After(t) {
			next++
		}
		if t.Before(notBefore) {
			continue
		}
		if next < len(merged) && merged[next].Overlaps(cand) {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}
