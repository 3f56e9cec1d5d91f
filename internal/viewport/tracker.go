package viewport

import "time"

// Tracker turns the host list's visibility notifications into per-index
// dwell times. An index's dwell restarts whenever it leaves the visible set.
type Tracker struct {
	since     map[int]time.Time
	fractions map[int]float64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		since:     make(map[int]time.Time),
		fractions: make(map[int]float64),
	}
}

// Observe replaces the visible set with fractions as of now. Indices with a
// non-positive fraction count as not visible.
func (t *Tracker) Observe(now time.Time, fractions map[int]float64) {
	next := make(map[int]float64, len(fractions))
	for idx, f := range fractions {
		if f > 0 {
			next[idx] = f
		}
	}
	for idx := range t.since {
		if _, still := next[idx]; !still {
			delete(t.since, idx)
		}
	}
	for idx := range next {
		if _, seen := t.since[idx]; !seen {
			t.since[idx] = now
		}
	}
	t.fractions = next
}

// Snapshot returns copies of the visible fractions and their dwell times at now.
func (t *Tracker) Snapshot(now time.Time) (map[int]float64, map[int]time.Duration) {
	visible := make(map[int]float64, len(t.fractions))
	dwell := make(map[int]time.Duration, len(t.fractions))
	for idx, f := range t.fractions {
		visible[idx] = f
		d := now.Sub(t.since[idx])
		if d < 0 {
			d = 0
		}
		dwell[idx] = d
	}
	return visible, dwell
}

// Visible reports whether idx is in the current visible set.
func (t *Tracker) Visible(idx int) bool {
	_, ok := t.fractions[idx]
	return ok
}

// Reset forgets all visibility, as when the screen loses its list.
func (t *Tracker) Reset() {
	t.since = make(map[int]time.Time)
	t.fractions = make(map[int]float64)
}
