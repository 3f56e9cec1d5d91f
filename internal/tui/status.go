package tui

import (
	"fmt"
	"strings"
	"time"
)

// Canonical short status messages used across the app.
const (
	MsgRefreshing    = "Refreshing…"
	MsgAddingSource  = "Adding source…"
	MsgOpening       = "Opening in player…"
	MsgNoResults     = "No results"
	MsgNoReels       = "No reels yet"
	MsgMuted         = "Muted"
	MsgUnmuted       = "Sound on"
	MsgLiked         = "♥ Liked"
	MsgUnliked       = "Like removed"
	MsgRetrying      = "Retrying…"
	MsgNothingToOpen = "Nothing to open"
)

const statusTTL = 3 * time.Second

func MsgAddedSource(title string) string {
	return fmt.Sprintf("Added source '%s'", strings.TrimSpace(title))
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgRefreshSummary(added, errors, docCount int) string {
	base := fmt.Sprintf("Refreshed: %d reels", added)
	if errors > 0 {
		base += fmt.Sprintf(" • %d errors", errors)
	}
	if docCount >= 0 {
		base += fmt.Sprintf(" • idx: %d docs", docCount)
	}
	return base
}

func MsgPlaybackFailed(err error) string {
	return fmt.Sprintf("Playback failed: %v", err)
}
