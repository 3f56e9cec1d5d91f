// Package viewport decides which list index of a virtualized feed is allowed
// to play, based on how visible each index is and how long it has stayed so.
package viewport

import "time"

// Default policy thresholds.
const (
	DefaultMinDwell        = 100 * time.Millisecond
	DefaultMinVisibleRatio = 0.5
)

// Policy is pure: ComputeActive depends only on its arguments.
type Policy struct {
	// MinDwell is how long an index must have been continuously visible
	// before it may become active. It keeps fast flings from flapping.
	MinDwell time.Duration
	// MinFraction filters out indices that are only barely on screen.
	MinFraction float64
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{MinDwell: DefaultMinDwell, MinFraction: DefaultMinVisibleRatio}
}

// Eligible reports whether an index with the given visible fraction and
// dwell time may be activated.
func (p Policy) Eligible(fraction float64, dwell time.Duration) bool {
	return fraction > 0 && fraction >= p.MinFraction && dwell >= p.MinDwell
}

// ComputeActive returns the eligible index with the highest visible
// fraction, the lowest index winning ties. ok is false when nothing is
// eligible. Indices missing from dwell are treated as just appeared.
func (p Policy) ComputeActive(visible map[int]float64, dwell map[int]time.Duration) (index int, ok bool) {
	bestFraction := 0.0
	for idx, fraction := range visible {
		if !p.Eligible(fraction, dwell[idx]) {
			continue
		}
		if !ok || fraction > bestFraction || (fraction == bestFraction && idx < index) {
			index, bestFraction, ok = idx, fraction, true
		}
	}
	return index, ok
}

// NextSettle returns how long until the first currently visible but not
// yet dwelled index becomes eligible on time alone. ok is false if no index
// is waiting on dwell.
func (p Policy) NextSettle(visible map[int]float64, dwell map[int]time.Duration) (wait time.Duration, ok bool) {
	for idx, fraction := range visible {
		if fraction <= 0 || fraction < p.MinFraction {
			continue
		}
		d := dwell[idx]
		if d >= p.MinDwell {
			continue
		}
		remaining := p.MinDwell - d
		if !ok || remaining < wait {
			wait, ok = remaining, true
		}
	}
	return wait, ok
}
