package tui

import (
	"fmt"
	"strings"
	"time"
)

// truncateEnd cuts s to at most limit runes, ending in an ellipsis when
// anything was dropped.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle keeps both ends of s, which is what matters for URLs.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	if left == 0 {
		return "…" + string(r[n-right:])
	}
	return string(r[:left]) + "…" + string(r[n-right:])
}

// formatPlayhead renders "m:ss / m:ss".
func formatPlayhead(pos, total time.Duration) string {
	return clockString(pos) + " / " + clockString(total)
}

func clockString(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// singleLine collapses whitespace runs so captions fit one row.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
