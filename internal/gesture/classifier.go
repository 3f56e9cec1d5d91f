// Package gesture turns raw press/release events on feed items into tap,
// double-tap and long-press actions. Classification state is partitioned by
// item id, so two items never interact.
package gesture

import (
	"time"

	"github.com/pders01/reels/internal/clock"
)

// DefaultDoubleTapWindow is the debounce window separating a single tap from
// the first half of a double tap.
const DefaultDoubleTapWindow = 300 * time.Millisecond

// Kind identifies a classified gesture.
type Kind int

const (
	SingleTap Kind = iota
	DoubleTap
	PauseRequested
	ResumeRequested
)

func (k Kind) String() string {
	switch k {
	case SingleTap:
		return "single-tap"
	case DoubleTap:
		return "double-tap"
	case PauseRequested:
		return "pause-requested"
	case ResumeRequested:
		return "resume-requested"
	default:
		return "unknown"
	}
}

// Event is one resolved gesture.
type Event struct {
	Kind   Kind
	ItemID string
}

// session is the transient per-item gesture record. It lives from the first
// press-down until the gesture resolves or the item unmounts.
type session struct {
	lastTap     time.Time
	hasLastTap  bool
	pending     clock.Timer
	pendingSeq  uint64
	pressed     bool
	longPressed bool
	// absorbUntil swallows trailing taps of a rapid burst that already
	// produced a double tap. absorb clears the session once it passes.
	absorbUntil time.Time
	absorb      clock.Timer
	absorbSeq   uint64
}

// Classifier must be driven from a single goroutine. Timer callbacks are
// expected to be delivered on that same goroutine by the Scheduler.
type Classifier struct {
	window   time.Duration
	sched    clock.Scheduler
	emit     func(Event)
	sessions map[string]*session
	seq      uint64
}

// NewClassifier returns a classifier that reports resolved gestures to emit.
// A non-positive window falls back to DefaultDoubleTapWindow.
func NewClassifier(window time.Duration, sched clock.Scheduler, emit func(Event)) *Classifier {
	if window <= 0 {
		window = DefaultDoubleTapWindow
	}
	if emit == nil {
		emit = func(Event) {}
	}
	return &Classifier{
		window:   window,
		sched:    sched,
		emit:     emit,
		sessions: make(map[string]*session),
	}
}

// Window returns the double-tap debounce window.
func (c *Classifier) Window() time.Duration { return c.window }

// PressDown starts (or continues) the gesture session for itemID.
func (c *Classifier) PressDown(itemID string, _ time.Time) {
	s := c.sessions[itemID]
	if s == nil {
		s = &session{}
		c.sessions[itemID] = s
	}
	s.pressed = true
}

// PressUp classifies the release. A release with no matching press-down, for
// example one whose session was cleared by an unmount, is ignored.
func (c *Classifier) PressUp(itemID string, now time.Time) {
	s := c.sessions[itemID]
	if s == nil || !s.pressed {
		return
	}
	s.pressed = false

	if s.longPressed {
		s.longPressed = false
		c.clearIfIdle(itemID, s)
		c.emit(Event{Kind: ResumeRequested, ItemID: itemID})
		return
	}

	if now.Before(s.absorbUntil) {
		c.armAbsorb(itemID, s, now)
		return
	}

	if s.pending != nil && s.hasLastTap && now.Sub(s.lastTap) < c.window {
		c.stopPending(s)
		s.hasLastTap = false
		c.armAbsorb(itemID, s, now)
		c.emit(Event{Kind: DoubleTap, ItemID: itemID})
		return
	}

	// The previous tap's timer is due but the loop has not delivered it yet.
	// It still resolves as a single tap before this release starts a new one.
	if s.pending != nil && s.hasLastTap {
		c.stopPending(s)
		c.emit(Event{Kind: SingleTap, ItemID: itemID})
	}

	c.stopPending(s)
	s.lastTap = now
	s.hasLastTap = true
	c.seq++
	seq := c.seq
	s.pendingSeq = seq
	s.pending = c.sched.AfterFunc(c.window, func() { c.fireSingleTap(itemID, s, seq) })
}

// LongPressTrigger is delivered by the host input layer once a press has been
// held past its long-press threshold. It cancels any pending single tap so the
// hold never also toggles mute.
func (c *Classifier) LongPressTrigger(itemID string) {
	s := c.sessions[itemID]
	if s == nil || !s.pressed || s.longPressed {
		return
	}
	c.stopPending(s)
	s.hasLastTap = false
	s.longPressed = true
	c.emit(Event{Kind: PauseRequested, ItemID: itemID})
}

// Cancel drops the session for itemID without emitting anything. Called when
// the item unmounts.
func (c *Classifier) Cancel(itemID string) {
	s := c.sessions[itemID]
	if s == nil {
		return
	}
	c.stopPending(s)
	c.stopAbsorb(s)
	delete(c.sessions, itemID)
}

// Active reports whether itemID has an unresolved session.
func (c *Classifier) Active(itemID string) bool {
	_, ok := c.sessions[itemID]
	return ok
}

// LongPressed reports whether itemID is currently held past the threshold.
func (c *Classifier) LongPressed(itemID string) bool {
	s := c.sessions[itemID]
	return s != nil && s.longPressed
}

func (c *Classifier) fireSingleTap(itemID string, s *session, seq uint64) {
	// The timer may have been superseded between expiry and delivery.
	if c.sessions[itemID] != s || s.pending == nil || s.pendingSeq != seq {
		return
	}
	s.pending = nil
	s.hasLastTap = false
	c.clearIfIdle(itemID, s)
	c.emit(Event{Kind: SingleTap, ItemID: itemID})
}

func (c *Classifier) stopPending(s *session) {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.pendingSeq = 0
}

// armAbsorb extends the absorb window of a finished double tap to one
// window past now.
func (c *Classifier) armAbsorb(itemID string, s *session, now time.Time) {
	c.stopAbsorb(s)
	s.absorbUntil = now.Add(c.window)
	c.seq++
	seq := c.seq
	s.absorbSeq = seq
	s.absorb = c.sched.AfterFunc(c.window, func() {
		if c.sessions[itemID] != s || s.absorb == nil || s.absorbSeq != seq {
			return
		}
		s.absorb = nil
		s.absorbUntil = time.Time{}
		c.clearIfIdle(itemID, s)
	})
}

func (c *Classifier) stopAbsorb(s *session) {
	if s.absorb != nil {
		s.absorb.Stop()
		s.absorb = nil
	}
	s.absorbSeq = 0
}

func (c *Classifier) clearIfIdle(itemID string, s *session) {
	if !s.pressed && !s.longPressed && s.pending == nil && s.absorb == nil {
		delete(c.sessions, itemID)
	}
}
