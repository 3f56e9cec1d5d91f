// Package aspect snaps reported natural video dimensions onto a fixed set of
// display aspect ratios and memoizes the result per item id.
package aspect

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidMediaMetadata is returned for zero, negative or otherwise
	// unusable natural dimensions.
	ErrInvalidMediaMetadata = errors.New("invalid media metadata")
	// ErrNoRatios is returned when a resolver is built without allowed ratios.
	ErrNoRatios = errors.New("no allowed aspect ratios")
)

// Ratio is a named width/height ratio such as "9:16".
type Ratio struct {
	Name  string
	Value float64
}

func (r Ratio) String() string { return r.Name }

// Common ratios.
var (
	Landscape16x9 = Ratio{Name: "16:9", Value: 16.0 / 9.0}
	Portrait9x16  = Ratio{Name: "9:16", Value: 9.0 / 16.0}
	Classic4x3    = Ratio{Name: "4:3", Value: 4.0 / 3.0}
)

// DefaultAllowed is the ordered allowed set used when none is configured.
var DefaultAllowed = []Ratio{Landscape16x9, Portrait9x16, Classic4x3}

// ParseRatio parses "W:H" (or "W/H") into a Ratio.
func ParseRatio(s string) (Ratio, error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, ":/")
	if sep <= 0 || sep == len(s)-1 {
		return Ratio{}, fmt.Errorf("parsing ratio %q: want W:H", s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(s[:sep]), 64)
	if err != nil {
		return Ratio{}, fmt.Errorf("parsing ratio %q: %w", s, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(s[sep+1:]), 64)
	if err != nil {
		return Ratio{}, fmt.Errorf("parsing ratio %q: %w", s, err)
	}
	if !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return Ratio{}, fmt.Errorf("parsing ratio %q: sides must be positive", s)
	}
	return Ratio{Name: s[:sep] + ":" + s[sep+1:], Value: w / h}, nil
}

// ParseRatios parses a list of ratio strings, preserving order.
func ParseRatios(specs []string) ([]Ratio, error) {
	out := make([]Ratio, 0, len(specs))
	for _, s := range specs {
		r, err := ParseRatio(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Nearest returns the member of allowed closest to value. Ties go to the
// earlier member.
func Nearest(allowed []Ratio, value float64) Ratio {
	best := allowed[0]
	bestDiff := math.Abs(value - best.Value)
	for _, r := range allowed[1:] {
		if d := math.Abs(value - r.Value); d < bestDiff {
			best, bestDiff = r, d
		}
	}
	return best
}

// Resolver memoizes the resolved ratio per item id. It is not safe for
// concurrent use; the playback coordinator owns it on its event loop.
type Resolver struct {
	allowed  []Ratio
	fallback Ratio
	cache    map[string]Ratio
}

// NewResolver builds a resolver over the ordered allowed set. fallback is
// returned for items without an authoritative ratio and is never cached.
func NewResolver(allowed []Ratio, fallback Ratio) (*Resolver, error) {
	if len(allowed) == 0 {
		return nil, ErrNoRatios
	}
	return &Resolver{
		allowed:  append([]Ratio(nil), allowed...),
		fallback: fallback,
		cache:    make(map[string]Ratio),
	}, nil
}

// Resolve returns the cached ratio for itemID or, on first valid report,
// snaps width/height onto the allowed set and caches it. Malformed
// dimensions return the fallback with ErrInvalidMediaMetadata and leave the
// cache untouched so a later valid report can still resolve.
func (r *Resolver) Resolve(itemID string, width, height int) (Ratio, error) {
	if cached, ok := r.cache[itemID]; ok {
		return cached, nil
	}
	if width <= 0 || height <= 0 {
		return r.fallback, fmt.Errorf("resolving %s (%dx%d): %w", itemID, width, height, ErrInvalidMediaMetadata)
	}
	ratio := Nearest(r.allowed, float64(width)/float64(height))
	r.cache[itemID] = ratio
	return ratio, nil
}

// Lookup returns the cached ratio for itemID, if any.
func (r *Resolver) Lookup(itemID string) (Ratio, bool) {
	ratio, ok := r.cache[itemID]
	return ratio, ok
}

// Get returns the ratio to lay out itemID with: the cached one, or the fallback.
func (r *Resolver) Get(itemID string) Ratio {
	if ratio, ok := r.cache[itemID]; ok {
		return ratio
	}
	return r.fallback
}

// Fallback returns the configured default ratio.
func (r *Resolver) Fallback() Ratio { return r.fallback }

// Forget drops the entry for an item evicted from the data source.
func (r *Resolver) Forget(itemID string) {
	delete(r.cache, itemID)
}
