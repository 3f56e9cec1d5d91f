package playback

import (
	"time"

	"github.com/pders01/reels/internal/aspect"
	"github.com/pders01/reels/internal/gesture"
)

// Player is the command side of one mounted video player. Implementations
// must tolerate repeated identical commands.
type Player interface {
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	SetMuted(muted bool) error
}

// Liker toggles the persisted like state of an item and returns the new value.
type Liker interface {
	ToggleLike(itemID string) (bool, error)
}

// Observer receives notifications the rendering host needs for indicators.
// All methods are called on the coordinator's event loop.
type Observer interface {
	StateChanged(index int, itemID string, from, to State)
	MuteChanged(muted bool)
	GestureResolved(ev gesture.Event)
	LikeToggled(itemID string, liked bool)
	AspectResolved(index int, itemID string, ratio aspect.Ratio)
	PlayerError(index int, itemID string, err error)
}

// NopObserver ignores every notification. Embed it to implement only the
// methods you care about.
type NopObserver struct{}

func (NopObserver) StateChanged(int, string, State, State) {}
func (NopObserver) MuteChanged(bool) {}
func (NopObserver) GestureResolved(gesture.Event) {}
func (NopObserver) LikeToggled(string, bool) {}
func (NopObserver) AspectResolved(int, string, aspect.Ratio) {}
func (NopObserver) PlayerError(int, string, error) {}
