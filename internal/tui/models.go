package tui

type View int

const (
	ViewFeed View = iota
	ViewSearch
	ViewAddSource
	ViewHelp
)

// playsIn reports whether the feed keeps playing while v is shown.
func (v View) playsIn() bool {
	return v == ViewFeed
}
