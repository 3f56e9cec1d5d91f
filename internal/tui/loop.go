package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/reels/internal/clock"
)

// timerFiredMsg is delivered by tea.Tick when a loop timer is due.
type timerFiredMsg struct {
	id uint64
}

// eventLoop schedules callbacks on the bubbletea Update loop. Anything that
// needs a timer (gesture windows, dwell settling, simulated decoders) goes
// through here so every callback runs serialized with key handling.
//
// Callers collect the commands queued during an Update with drain.
type eventLoop struct {
	now     func() time.Time
	seq     uint64
	timers  map[uint64]loopEntry
	pending []tea.Cmd
}

type loopEntry struct {
	due time.Time
	f   func()
}

func newEventLoop(now func() time.Time) *eventLoop {
	if now == nil {
		now = time.Now
	}
	return &eventLoop{now: now, timers: make(map[uint64]loopEntry)}
}

// after schedules f and returns its id.
func (l *eventLoop) after(d time.Duration, f func()) uint64 {
	l.seq++
	id := l.seq
	l.timers[id] = loopEntry{due: l.now().Add(d), f: f}
	l.queue(tea.Tick(d, func(time.Time) tea.Msg { return timerFiredMsg{id: id} }))
	return id
}

// cancel reports whether the timer was still pending.
func (l *eventLoop) cancel(id uint64) bool {
	if _, ok := l.timers[id]; !ok {
		return false
	}
	delete(l.timers, id)
	return true
}

// fire runs the timer's callback unless it was cancelled. The tick for a
// cancelled timer still arrives and is dropped here.
func (l *eventLoop) fire(id uint64) {
	e, ok := l.timers[id]
	if !ok {
		return
	}
	delete(l.timers, id)
	e.f()
}

func (l *eventLoop) queue(cmd tea.Cmd) {
	if cmd != nil {
		l.pending = append(l.pending, cmd)
	}
}

func (l *eventLoop) drain() tea.Cmd {
	if len(l.pending) == 0 {
		return nil
	}
	cmds := l.pending
	l.pending = nil
	return tea.Batch(cmds...)
}

func (l *eventLoop) clock() clock.Clock {
	return loopClock{l: l}
}

type loopClock struct {
	l *eventLoop
}

func (c loopClock) Now() time.Time { return c.l.now() }

func (c loopClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	return loopTimer{l: c.l, id: c.l.after(d, f)}
}

type loopTimer struct {
	l  *eventLoop
	id uint64
}

func (t loopTimer) Stop() bool { return t.l.cancel(t.id) }
