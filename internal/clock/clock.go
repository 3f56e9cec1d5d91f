// Package clock abstracts time for the playback subsystem so that timers can be
// routed through a single event loop and driven deterministically in tests.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a scheduled callback that can be cancelled. Stop reports whether the
// call prevented the callback from running; stopping an already fired or
// already stopped timer is a no-op that returns false.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Clock is a time source that can also schedule callbacks.
type Clock interface {
	Scheduler
	Now() time.Time
}

type realClock struct {
	cw clockwork.Clock
}

// Real returns a Clock backed by the wall clock. Callbacks run on their own
// goroutine, so callers that need serialization must funnel them through a loop.
func Real() Clock {
	return FromClockwork(clockwork.NewRealClock())
}

// FromClockwork adapts any clockwork clock, including a fake one.
func FromClockwork(cw clockwork.Clock) Clock {
	return &realClock{cw: cw}
}

func (c *realClock) Now() time.Time { return c.cw.Now() }

func (c *realClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.cw.AfterFunc(d, f)
}
