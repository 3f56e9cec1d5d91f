// Package playback coordinates video playback across the mounted slots of a
// virtualized, vertically scrolling feed.
//
// The Coordinator is single-threaded: every method must be called from one
// event loop, and its clock must deliver timer callbacks on that same loop.
// Dispatcher provides such a loop for hosts that are not already one.
package playback

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pders01/reels/internal/aspect"
	"github.com/pders01/reels/internal/buffering"
	"github.com/pders01/reels/internal/clock"
	"github.com/pders01/reels/internal/debuglog"
	"github.com/pders01/reels/internal/gesture"
	"github.com/pders01/reels/internal/viewport"
)

// Options configures a Coordinator.
type Options struct {
	// Clock supplies Now and timers. Its callbacks must run on the
	// coordinator's event loop.
	Clock           clock.Clock
	Policy          viewport.Policy
	DoubleTapWindow time.Duration
	AllowedRatios   []aspect.Ratio
	DefaultRatio    aspect.Ratio
	// Loop replays the active clip when it ends.
	Loop       bool
	StartMuted bool
	Liker      Liker
	Observer   Observer
}

// SlotInfo is a read-only view of a mounted slot.
type SlotInfo struct {
	Index  int
	ItemID string
	State  State
	Ready  bool
	Held   bool
	Err    error
}

type slot struct {
	index  int
	itemID string
	player Player
	state  State
	// ready is set once the player reported metadata or finished loading.
	ready bool
	// held is set while a long press overrides the viewport policy.
	held bool
	// finished marks a clip that ended with looping off; it stays put until
	// the slot loses activation.
	finished bool
	failed   error
}

// Coordinator owns the mounted slots, the activation decision, the global
// mute flag and the per-item caches.
type Coordinator struct {
	clk      clock.Clock
	policy   viewport.Policy
	loop     bool
	gestures *gesture.Classifier
	ratios   *aspect.Resolver
	buffers  *buffering.Tracker
	dwell    *viewport.Tracker
	liker    Liker
	obs      Observer

	slots map[int]*slot

	desired    int
	hasDesired bool
	focused    bool
	muted      bool

	settle    clock.Timer
	settleSeq uint64
}

// NewCoordinator builds a coordinator. The screen starts focused.
func NewCoordinator(opts Options) (*Coordinator, error) {
	if opts.Clock == nil {
		return nil, errors.New("playback: clock is required")
	}
	allowed := opts.AllowedRatios
	if len(allowed) == 0 {
		allowed = aspect.DefaultAllowed
	}
	fallback := opts.DefaultRatio
	if fallback.Value <= 0 {
		fallback = aspect.Portrait9x16
	}
	ratios, err := aspect.NewResolver(allowed, fallback)
	if err != nil {
		return nil, fmt.Errorf("building aspect resolver: %w", err)
	}
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	c := &Coordinator{
		clk:     opts.Clock,
		policy:  opts.Policy,
		loop:    opts.Loop,
		ratios:  ratios,
		buffers: buffering.NewTracker(),
		dwell:   viewport.NewTracker(),
		liker:   opts.Liker,
		obs:     obs,
		slots:   make(map[int]*slot),
		focused: true,
		muted:   opts.StartMuted,
	}
	c.gestures = gesture.NewClassifier(opts.DoubleTapWindow, opts.Clock, c.onGesture)
	return c, nil
}

// VisibilityChanged is the host list's viewability report: visible list
// indices mapped to the fraction of each that is on screen.
func (c *Coordinator) VisibilityChanged(fractions map[int]float64) {
	c.dwell.Observe(c.clk.Now(), fractions)
	c.recompute()
}

// SetFocused reports whether the feed screen has focus. An unfocused feed
// plays nothing.
func (c *Coordinator) SetFocused(focused bool) {
	if c.focused == focused {
		return
	}
	c.focused = focused
	c.recompute()
}

// Mount registers a live player for index. Mounting over an occupied index
// recycles it: the previous occupant is unmounted first.
func (c *Coordinator) Mount(index int, itemID string, p Player) {
	if _, ok := c.slots[index]; ok {
		c.unmount(index)
	}
	s := &slot{index: index, itemID: itemID, player: p, state: Idle}
	c.slots[index] = s
	c.command(s, "set-muted", p.SetMuted(c.muted))
	debuglog.WithFields(map[string]any{"index": index, "item": itemID}).Debugf("slot mounted")
	c.recompute()
}

// Unmount drops the slot at index. Its pending gestures are cancelled and its
// playback state is discarded; a later remount starts at Idle.
func (c *Coordinator) Unmount(index int) {
	s, ok := c.slots[index]
	if !ok {
		return
	}
	wasActive := s.state.Active() || (c.hasDesired && c.desired == index)
	c.unmount(index)
	if wasActive {
		c.recompute()
	}
}

func (c *Coordinator) unmount(index int) {
	s := c.slots[index]
	if s.state.Active() {
		c.command(s, "pause", s.player.Pause())
	}
	delete(c.slots, index)
	if c.slotForItem(s.itemID) == nil {
		c.gestures.Cancel(s.itemID)
	}
	debuglog.WithFields(map[string]any{"index": index, "item": s.itemID, "state": s.state}).Debugf("slot unmounted")
}

// PressDown forwards a touch-down on a mounted item to the gesture classifier.
func (c *Coordinator) PressDown(itemID string, at time.Time) {
	if c.slotForItem(itemID) == nil {
		return
	}
	c.gestures.PressDown(itemID, at)
}

// PressUp forwards a touch-up.
func (c *Coordinator) PressUp(itemID string, at time.Time) {
	c.gestures.PressUp(itemID, at)
}

// LongPressTrigger is delivered once a press has been held past the host's
// long-press threshold.
func (c *Coordinator) LongPressTrigger(itemID string) {
	c.gestures.LongPressTrigger(itemID)
}

// MetadataLoaded reports the natural video size of the item in index.
func (c *Coordinator) MetadataLoaded(index int, itemID string, width, height int) {
	s := c.current(index, itemID, "metadata")
	if s == nil {
		return
	}
	ratio, err := c.ratios.Resolve(itemID, width, height)
	if err != nil {
		debuglog.Warnf("using default ratio %s: %v", ratio, err)
	}
	s.ready = true
	c.obs.AspectResolved(index, itemID, ratio)
	if s.state == Loading {
		c.setState(s, Playing)
	}
}

// BufferingChanged records a buffering transition reported by a player. The
// flag is always stored by item id; the slot state only follows if the slot
// still holds that item.
func (c *Coordinator) BufferingChanged(index int, itemID string, isBuffering bool) {
	c.buffers.SetBuffering(itemID, isBuffering)
	s := c.current(index, itemID, "buffering")
	if s == nil {
		return
	}
	switch {
	case isBuffering && s.state == Playing:
		c.setState(s, Buffering)
	case !isBuffering && (s.state == Buffering || s.state == Loading):
		s.ready = true
		c.setState(s, Playing)
	}
}

// Ended reports that the clip in index played to completion. The slot is
// rewound to Idle and, with looping on, replayed if it is still the active one.
func (c *Coordinator) Ended(index int, itemID string) {
	s := c.current(index, itemID, "ended")
	if s == nil {
		return
	}
	c.setState(s, Ended)
	c.command(s, "seek", s.player.Seek(0))
	c.setState(s, Idle)
	if !c.isDesired(s) {
		return
	}
	if !c.loop {
		s.finished = true
		return
	}
	c.activate(s)
}

// Failed reports a player error. The slot drops to Idle, loses any claim
// and is skipped by the activation policy until Retry or remount.
func (c *Coordinator) Failed(index int, itemID string, err error) {
	s := c.current(index, itemID, "error")
	if s == nil {
		return
	}
	if err == nil {
		err = errors.New("unknown player error")
	}
	debuglog.WithFields(map[string]any{"index": index, "item": itemID}).Warnf("player error: %v", err)
	s.ready = false
	s.failed = err
	c.setState(s, Idle)
	c.obs.PlayerError(index, itemID, err)
	c.recompute()
}

// Retry clears a player error on index so the slot may be activated again.
func (c *Coordinator) Retry(index int) {
	s, ok := c.slots[index]
	if !ok || s.failed == nil {
		return
	}
	s.failed = nil
	c.recompute()
}

// Forget drops cached aspect and buffering data for an item the data source
// evicted.
func (c *Coordinator) Forget(itemID string) {
	c.ratios.Forget(itemID)
	c.buffers.Forget(itemID)
}

// State returns the playback state of the slot at index.
func (c *Coordinator) State(index int) (State, bool) {
	s, ok := c.slots[index]
	if !ok {
		return Idle, false
	}
	return s.state, true
}

// IsBuffering reports the buffering flag for itemID.
func (c *Coordinator) IsBuffering(itemID string) bool {
	return c.buffers.IsBuffering(itemID)
}

// AspectRatio returns the ratio to lay itemID out with.
func (c *Coordinator) AspectRatio(itemID string) aspect.Ratio {
	return c.ratios.Get(itemID)
}

// Muted returns the global mute flag.
func (c *Coordinator) Muted() bool { return c.muted }

// Focused reports whether the feed screen has focus.
func (c *Coordinator) Focused() bool { return c.focused }

// DesiredIndex is the policy's last decision. The index may not be mounted yet.
func (c *Coordinator) DesiredIndex() (int, bool) {
	return c.desired, c.hasDesired
}

// ActiveIndex returns the slot currently holding the decoder claim.
func (c *Coordinator) ActiveIndex() (int, bool) {
	for _, s := range c.sortedSlots() {
		if s.state.Active() {
			return s.index, true
		}
	}
	return 0, false
}

// Slots returns a snapshot of the mounted slots in index order.
func (c *Coordinator) Slots() []SlotInfo {
	out := make([]SlotInfo, 0, len(c.slots))
	for _, s := range c.sortedSlots() {
		out = append(out, SlotInfo{
			Index:  s.index,
			ItemID: s.itemID,
			State:  s.state,
			Ready:  s.ready,
			Held:   s.held,
			Err:    s.failed,
		})
	}
	return out
}

func (c *Coordinator) onGesture(ev gesture.Event) {
	c.obs.GestureResolved(ev)
	switch ev.Kind {
	case gesture.SingleTap:
		c.toggleMute()
	case gesture.DoubleTap:
		c.toggleLike(ev.ItemID)
	case gesture.PauseRequested:
		for _, s := range c.slotsForItem(ev.ItemID) {
			s.held = true
			if s.state.Active() {
				c.command(s, "pause", s.player.Pause())
				c.setState(s, Paused)
			}
		}
	case gesture.ResumeRequested:
		for _, s := range c.slotsForItem(ev.ItemID) {
			s.held = false
			if c.isDesired(s) && c.focused {
				c.activate(s)
			}
		}
	}
}

func (c *Coordinator) toggleMute() {
	c.muted = !c.muted
	for _, s := range c.sortedSlots() {
		c.command(s, "set-muted", s.player.SetMuted(c.muted))
	}
	c.obs.MuteChanged(c.muted)
}

func (c *Coordinator) toggleLike(itemID string) {
	if c.liker == nil {
		return
	}
	liked, err := c.liker.ToggleLike(itemID)
	if err != nil {
		debuglog.Errorf("toggling like for %s: %v", itemID, err)
		return
	}
	c.obs.LikeToggled(itemID, liked)
}

// recompute re-runs the viewport policy and applies its decision. It is the
// only place activation changes, so a switch is never interleaved with
// another decision.
func (c *Coordinator) recompute() {
	c.stopSettle()
	next, ok := c.computeDesired()

	prev, hadPrev := c.desired, c.hasDesired
	c.desired, c.hasDesired = next, ok
	changed := hadPrev != ok || prev != next

	if changed && hadPrev {
		if s, mounted := c.slots[prev]; mounted {
			c.deactivate(s, true)
		}
		debuglog.Debugf("activation moved from %d to %d (ok=%t)", prev, next, ok)
	}
	for _, s := range c.sortedSlots() {
		if ok && s.index == next {
			continue
		}
		c.deactivate(s, false)
	}
	if !ok {
		return
	}
	if s, mounted := c.slots[next]; mounted {
		c.activate(s)
	}
}

func (c *Coordinator) computeDesired() (int, bool) {
	if !c.focused {
		return 0, false
	}
	visible, dwell := c.dwell.Snapshot(c.clk.Now())
	for idx := range visible {
		if s, ok := c.slots[idx]; ok && s.failed != nil {
			delete(visible, idx)
		}
	}
	if wait, ok := c.policy.NextSettle(visible, dwell); ok {
		c.armSettle(wait)
	}
	return c.policy.ComputeActive(visible, dwell)
}

func (c *Coordinator) armSettle(wait time.Duration) {
	c.settleSeq++
	seq := c.settleSeq
	c.settle = c.clk.AfterFunc(wait, func() {
		if seq != c.settleSeq {
			return
		}
		c.settle = nil
		c.recompute()
	})
}

func (c *Coordinator) stopSettle() {
	if c.settle != nil {
		c.settle.Stop()
		c.settle = nil
	}
	c.settleSeq++
}

func (c *Coordinator) activate(s *slot) {
	if s.held || s.failed != nil || s.finished {
		return
	}
	if s.state != Idle && s.state != Paused {
		return
	}
	c.command(s, "play", s.player.Play())
	// A slot paused before its metadata arrived is still loading.
	if s.ready {
		c.setState(s, Playing)
	} else {
		c.setState(s, Loading)
	}
}

// deactivate pauses an active slot. rewind also seeks it back to the start
// so re-entering the position restarts the clip.
func (c *Coordinator) deactivate(s *slot, rewind bool) {
	if s.state.Active() {
		c.command(s, "pause", s.player.Pause())
		c.setState(s, Paused)
	}
	if rewind {
		s.finished = false
		if s.state != Idle {
			c.command(s, "seek", s.player.Seek(0))
		}
	}
}

func (c *Coordinator) setState(s *slot, to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	c.obs.StateChanged(s.index, s.itemID, from, to)
}

func (c *Coordinator) command(s *slot, name string, err error) {
	if err != nil {
		debuglog.WithFields(map[string]any{"index": s.index, "item": s.itemID}).Warnf("%s command failed: %v", name, err)
	}
}

func (c *Coordinator) isDesired(s *slot) bool {
	return c.hasDesired && c.desired == s.index
}

// current returns the slot at index only if it still holds itemID. A
// mismatch means the callback was registered before the slot was recycled.
func (c *Coordinator) current(index int, itemID, what string) *slot {
	s, ok := c.slots[index]
	if !ok || s.itemID != itemID {
		debuglog.WithFields(map[string]any{"index": index, "item": itemID}).Debugf("discarding stale %s callback", what)
		return nil
	}
	return s
}

func (c *Coordinator) slotForItem(itemID string) *slot {
	for _, s := range c.sortedSlots() {
		if s.itemID == itemID {
			return s
		}
	}
	return nil
}

func (c *Coordinator) slotsForItem(itemID string) []*slot {
	var out []*slot
	for _, s := range c.sortedSlots() {
		if s.itemID == itemID {
			out = append(out, s)
		}
	}
	return out
}

func (c *Coordinator) sortedSlots() []*slot {
	out := make([]*slot, 0, len(c.slots))
	for _, s := range c.slots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}
