package tui

// Visible fractions reported for the mounted window. The reel under the
// cursor fills the screen; its neighbours peek in at the edges.
const (
	cursorFraction   = 1.0
	neighborFraction = 0.15
)

// windowRange returns the half-open index range [lo, hi) of reels that keep
// a mounted player: size slots centred on cursor, shifted inwards at either
// end of the feed.
func windowRange(cursor, n, size int) (lo, hi int) {
	if n <= 0 || size <= 0 {
		return 0, 0
	}
	if size > n {
		size = n
	}
	lo = cursor - size/2
	if lo < 0 {
		lo = 0
	}
	hi = lo + size
	if hi > n {
		hi = n
		lo = hi - size
	}
	return lo, hi
}

// visibility builds the viewability report for the mounted window.
func visibility(cursor, lo, hi int) map[int]float64 {
	out := make(map[int]float64, hi-lo)
	for i := lo; i < hi; i++ {
		switch {
		case i == cursor:
			out[i] = cursorFraction
		case i == cursor-1 || i == cursor+1:
			out[i] = neighborFraction
		}
	}
	return out
}

// syncWindow mounts players for the window around the cursor and unmounts
// the ones that scrolled out. A slot whose index now holds a different reel
// is recycled in place.
func (a *App) syncWindow() {
	lo, hi := windowRange(a.cursor, len(a.reels), a.config.Playback.WindowSize)

	for idx, p := range a.players {
		if idx >= lo && idx < hi && p.reel.ID == a.reels[idx].ID {
			continue
		}
		if idx < lo || idx >= hi {
			a.coord.Unmount(idx)
		}
		p.release()
		delete(a.players, idx)
	}
	for idx := lo; idx < hi; idx++ {
		if _, ok := a.players[idx]; ok {
			continue
		}
		p := newSimPlayer(a.loop, a.coord, idx, a.reels[idx])
		a.players[idx] = p
		a.coord.Mount(idx, a.reels[idx].ID, p)
	}
	a.coord.VisibilityChanged(visibility(a.cursor, lo, hi))
}

// clearWindow releases every mounted player.
func (a *App) clearWindow() {
	for idx, p := range a.players {
		a.coord.Unmount(idx)
		p.release()
		delete(a.players, idx)
	}
	a.coord.VisibilityChanged(nil)
}
