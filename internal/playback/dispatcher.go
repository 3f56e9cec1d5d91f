package playback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pders01/reels/internal/clock"
)

// ErrStopped is returned when posting to a dispatcher whose loop has exited.
var ErrStopped = errors.New("playback: dispatcher stopped")

// Dispatcher serializes all coordinator access through one goroutine. Player
// callbacks, input handlers and timers may post from any goroutine; the
// coordinator only ever runs on the loop.
type Dispatcher struct {
	base    clock.Clock
	queue   chan func(*Coordinator)
	done    chan struct{}
	stop    sync.Once
	running atomic.Bool
}

// NewDispatcher creates a dispatcher whose timers are driven by base. buffer
// sizes the event queue; posts block while it is full.
func NewDispatcher(base clock.Clock, buffer int) *Dispatcher {
	if buffer < 1 {
		buffer = 64
	}
	return &Dispatcher{
		base:  base,
		queue: make(chan func(*Coordinator), buffer),
		done:  make(chan struct{}),
	}
}

// Clock returns a clock whose callbacks are delivered on the dispatcher loop.
// Build the coordinator with it.
func (d *Dispatcher) Clock() clock.Clock {
	return loopClock{d: d}
}

// Run processes events until ctx is cancelled. It may only be called once.
func (d *Dispatcher) Run(ctx context.Context, c *Coordinator) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("playback: dispatcher already running")
	}
	defer d.stop.Do(func() { close(d.done) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-d.queue:
			fn(c)
		}
	}
}

// Post queues ev for the loop.
func (d *Dispatcher) Post(ev Event) error {
	return d.enqueue(context.Background(), ev.Apply)
}

// Do runs fn on the loop and waits for it to return. Use it to query the
// coordinator from outside the loop.
func (d *Dispatcher) Do(ctx context.Context, fn func(*Coordinator)) error {
	finished := make(chan struct{})
	err := d.enqueue(ctx, func(c *Coordinator) {
		defer close(finished)
		fn(c)
	})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, fn func(*Coordinator)) error {
	select {
	case <-d.done:
		return ErrStopped
	default:
	}
	select {
	case d.queue <- fn:
		return nil
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

type loopClock struct {
	d *Dispatcher
}

func (l loopClock) Now() time.Time { return l.d.base.Now() }

func (l loopClock) AfterFunc(dur time.Duration, f func()) clock.Timer {
	t := &loopTimer{}
	t.inner = l.d.base.AfterFunc(dur, func() {
		// Stop and fire both resolve on the loop, so a stopped timer never
		// runs f even if the base timer already went off.
		_ = l.d.enqueue(context.Background(), func(*Coordinator) {
			if t.stopped || t.fired {
				return
			}
			t.fired = true
			f()
		})
	})
	return t
}

// loopTimer must only be stopped from the dispatcher loop.
type loopTimer struct {
	inner   clock.Timer
	stopped bool
	fired   bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.inner.Stop()
	return true
}
