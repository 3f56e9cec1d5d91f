package tui

import (
	"fmt"
	"time"
)

type fakeTime struct {
	now time.Time
}

func newFakeTime() *fakeTime {
	return &fakeTime{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeTime) Now() time.Time { return f.now }

// advance moves fake time forward by d and fires every loop timer that falls
// due, in due order, including timers scheduled by the callbacks themselves.
func advance(l *eventLoop, ft *fakeTime, d time.Duration) {
	end := ft.now.Add(d)
	for {
		id, due, ok := nextDue(l, end)
		if !ok {
			break
		}
		if due.After(ft.now) {
			ft.now = due
		}
		l.fire(id)
	}
	ft.now = end
	l.drain()
}

func nextDue(l *eventLoop, end time.Time) (uint64, time.Time, bool) {
	var (
		bestID  uint64
		bestDue time.Time
		found   bool
	)
	for id, e := range l.timers {
		if e.due.After(end) {
			continue
		}
		if !found || e.due.Before(bestDue) || (e.due.Equal(bestDue) && id < bestID) {
			bestID, bestDue, found = id, e.due, true
		}
	}
	return bestID, bestDue, found
}

type recordedEvents struct {
	log []string
}

func (r *recordedEvents) MetadataLoaded(index int, itemID string, width, height int) {
	r.log = append(r.log, fmt.Sprintf("metadata %d %s %dx%d", index, itemID, width, height))
}

func (r *recordedEvents) BufferingChanged(index int, itemID string, isBuffering bool) {
	r.log = append(r.log, fmt.Sprintf("buffering %d %s %t", index, itemID, isBuffering))
}

func (r *recordedEvents) Ended(index int, itemID string) {
	r.log = append(r.log, fmt.Sprintf("ended %d %s", index, itemID))
}

func (r *recordedEvents) Failed(index int, itemID string, err error) {
	r.log = append(r.log, fmt.Sprintf("failed %d %s", index, itemID))
}
