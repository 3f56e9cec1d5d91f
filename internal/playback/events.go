package playback

import "time"

// Event is one external input to the coordinator. Hosts that cannot call the
// coordinator from a single loop post Events to a Dispatcher instead.
type Event interface {
	Apply(c *Coordinator)
}

// VisibilityChanged carries the host list's visible fractions by index.
type VisibilityChanged struct {
	Fractions map[int]float64
}

func (e VisibilityChanged) Apply(c *Coordinator) { c.VisibilityChanged(e.Fractions) }

// ItemMounted reports that a live player now backs Index.
type ItemMounted struct {
	Index  int
	ItemID string
	Player Player
}

func (e ItemMounted) Apply(c *Coordinator) { c.Mount(e.Index, e.ItemID, e.Player) }

// ItemUnmounted reports that Index no longer has a player.
type ItemUnmounted struct {
	Index int
}

func (e ItemUnmounted) Apply(c *Coordinator) { c.Unmount(e.Index) }

// PressDown is a touch-down on an item.
type PressDown struct {
	ItemID string
	At     time.Time
}

func (e PressDown) Apply(c *Coordinator) { c.PressDown(e.ItemID, e.At) }

// PressUp is a touch-up on an item.
type PressUp struct {
	ItemID string
	At     time.Time
}

func (e PressUp) Apply(c *Coordinator) { c.PressUp(e.ItemID, e.At) }

// LongPress fires once a press passes the long-press threshold.
type LongPress struct {
	ItemID string
}

func (e LongPress) Apply(c *Coordinator) { c.LongPressTrigger(e.ItemID) }

// MetadataLoaded carries a player's natural video size.
type MetadataLoaded struct {
	Index         int
	ItemID        string
	Width, Height int
}

func (e MetadataLoaded) Apply(c *Coordinator) {
	c.MetadataLoaded(e.Index, e.ItemID, e.Width, e.Height)
}

// BufferingChanged is a player's buffering start or end.
type BufferingChanged struct {
	Index     int
	ItemID    string
	Buffering bool
}

func (e BufferingChanged) Apply(c *Coordinator) {
	c.BufferingChanged(e.Index, e.ItemID, e.Buffering)
}

// PlaybackEnded reports end of clip.
type PlaybackEnded struct {
	Index  int
	ItemID string
}

func (e PlaybackEnded) Apply(c *Coordinator) { c.Ended(e.Index, e.ItemID) }

// PlaybackFailed reports a player error.
type PlaybackFailed struct {
	Index  int
	ItemID string
	Err    error
}

func (e PlaybackFailed) Apply(c *Coordinator) { c.Failed(e.Index, e.ItemID, e.Err) }

// FocusChanged reports the feed screen gaining or losing focus.
type FocusChanged struct {
	Focused bool
}

func (e FocusChanged) Apply(c *Coordinator) { c.SetFocused(e.Focused) }

// RetryRequested clears a failed slot.
type RetryRequested struct {
	Index int
}

func (e RetryRequested) Apply(c *Coordinator) { c.Retry(e.Index) }

// ItemEvicted reports that the data source dropped an item.
type ItemEvicted struct {
	ItemID string
}

func (e ItemEvicted) Apply(c *Coordinator) { c.Forget(e.ItemID) }
