package playback

// State is the playback state of one mounted slot.
type State int

const (
	Idle State = iota
	Loading
	Playing
	Paused
	Buffering
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Buffering:
		return "buffering"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Active reports whether the state holds the feed's single decoder claim.
// Loading counts: a slot that has been told to play is already claiming it.
func (s State) Active() bool {
	return s == Loading || s == Playing || s == Buffering
}
