package tui

import (
	"errors"
	"hash/fnv"
	"time"

	"github.com/pders01/reels/internal/storage"
	"github.com/pders01/reels/internal/validation"
)

const (
	defaultClipLength = 15 * time.Second
	progressInterval  = 250 * time.Millisecond
	metadataDelay     = 300 * time.Millisecond
	stallLength       = 1200 * time.Millisecond
)

var errNoMedia = errors.New("reel has no playable media")

// playerEvents is the callback side of a player, implemented by the
// playback coordinator.
type playerEvents interface {
	MetadataLoaded(index int, itemID string, width, height int)
	BufferingChanged(index int, itemID string, isBuffering bool)
	Ended(index int, itemID string)
	Failed(index int, itemID string, err error)
}

// simPlayer stands in for a video decoder in the terminal. It keeps a
// playhead, reports the feed's dimensions as the natural size once "loaded"
// and stalls once per pass for reels whose id hashes into the stall bucket.
// All of its timers run on the event loop.
type simPlayer struct {
	loop   *eventLoop
	events playerEvents
	index  int
	reel   *storage.Reel

	duration time.Duration
	stallAt  time.Duration

	position time.Duration
	playing  bool
	muted    bool
	loaded   bool
	stalled  bool
	didStall bool
	released bool

	loadTimer  uint64
	tickTimer  uint64
	stallTimer uint64
}

func newSimPlayer(loop *eventLoop, events playerEvents, index int, reel *storage.Reel) *simPlayer {
	p := &simPlayer{
		loop:     loop,
		events:   events,
		index:    index,
		reel:     reel,
		duration: reel.Duration,
	}
	if p.duration <= 0 {
		p.duration = defaultClipLength
	}
	if stalls(reel.ID) {
		p.stallAt = p.duration / 3
	}
	p.load()
	return p
}

// stalls picks roughly one reel in four to simulate a network stall.
func stalls(id string) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return h.Sum32()%4 == 0
}

func (p *simPlayer) load() {
	p.loadTimer = p.loop.after(metadataDelay, func() {
		p.loadTimer = 0
		if p.released {
			return
		}
		if _, err := validation.ValidateMediaURI(p.reel.MediaURI); err != nil || p.reel.MediaURI == "" {
			if err == nil {
				err = errNoMedia
			}
			p.events.Failed(p.index, p.reel.ID, err)
			return
		}
		p.loaded = true
		p.events.MetadataLoaded(p.index, p.reel.ID, p.reel.Width, p.reel.Height)
		p.schedule()
	})
}

// reload restarts loading after a failure.
func (p *simPlayer) reload() {
	p.stop()
	p.loaded = false
	p.stalled = false
	p.load()
}

func (p *simPlayer) Play() error {
	if p.released {
		return errors.New("player released")
	}
	p.playing = true
	p.schedule()
	return nil
}

func (p *simPlayer) Pause() error {
	p.playing = false
	p.cancelTick()
	return nil
}

func (p *simPlayer) Seek(pos time.Duration) error {
	if pos < 0 {
		pos = 0
	}
	if pos > p.duration {
		pos = p.duration
	}
	p.position = pos
	if pos < p.stallAt {
		p.didStall = false
	}
	return nil
}

func (p *simPlayer) SetMuted(muted bool) error {
	p.muted = muted
	return nil
}

// Progress returns the playhead as a fraction of the clip.
func (p *simPlayer) Progress() float64 {
	if p.duration <= 0 {
		return 0
	}
	return float64(p.position) / float64(p.duration)
}

func (p *simPlayer) Position() time.Duration { return p.position }

func (p *simPlayer) Duration() time.Duration { return p.duration }

func (p *simPlayer) schedule() {
	if !p.playing || !p.loaded || p.stalled || p.released || p.tickTimer != 0 {
		return
	}
	p.tickTimer = p.loop.after(progressInterval, p.tick)
}

func (p *simPlayer) tick() {
	p.tickTimer = 0
	if !p.playing || p.released {
		return
	}
	p.position += progressInterval
	if p.stallAt > 0 && !p.didStall && p.position >= p.stallAt {
		p.didStall = true
		p.stalled = true
		p.events.BufferingChanged(p.index, p.reel.ID, true)
		p.stallTimer = p.loop.after(stallLength, func() {
			p.stallTimer = 0
			p.stalled = false
			if p.released {
				return
			}
			p.events.BufferingChanged(p.index, p.reel.ID, false)
			p.schedule()
		})
		return
	}
	if p.position >= p.duration {
		p.position = p.duration
		p.playing = false
		p.events.Ended(p.index, p.reel.ID)
		return
	}
	p.schedule()
}

func (p *simPlayer) cancelTick() {
	if p.tickTimer != 0 {
		p.loop.cancel(p.tickTimer)
		p.tickTimer = 0
	}
}

func (p *simPlayer) stop() {
	p.cancelTick()
	for _, id := range []*uint64{&p.loadTimer, &p.stallTimer} {
		if *id != 0 {
			p.loop.cancel(*id)
			*id = 0
		}
	}
}

// release cancels every pending callback. A released player never reports
// again.
func (p *simPlayer) release() {
	p.released = true
	p.playing = false
	p.stop()
}
