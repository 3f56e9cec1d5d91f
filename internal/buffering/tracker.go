// Package buffering records per-item buffering flags keyed by stable item id.
//
// Flags are never keyed by list slot: a slot can be recycled for a different
// item between a buffering-start and its matching buffering-end, and only id
// keyed storage lets the late event land on the item that produced it.
package buffering

// Tracker is a last-writer-wins map from item id to buffering flag. It is not
// safe for concurrent use.
type Tracker struct {
	flags map[string]bool
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{flags: make(map[string]bool)}
}

// SetBuffering records the latest buffering state for itemID.
func (t *Tracker) SetBuffering(itemID string, buffering bool) {
	if !buffering {
		// false is the zero value; keep the map small.
		delete(t.flags, itemID)
		return
	}
	t.flags[itemID] = true
}

// IsBuffering reports the last recorded state, false if none.
func (t *Tracker) IsBuffering(itemID string) bool {
	return t.flags[itemID]
}

// Forget drops the flag for an item evicted from the data source.
func (t *Tracker) Forget(itemID string) {
	delete(t.flags, itemID)
}

// Len returns the number of items currently flagged as buffering.
func (t *Tracker) Len() int {
	return len(t.flags)
}
