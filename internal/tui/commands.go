package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/reels/internal/search"
	"github.com/pders01/reels/internal/storage"
)

const (
	positionSaveDelay = 2 * time.Second
	searchDebounce    = 200 * time.Millisecond
	searchLimit       = 20
)

type reelsLoadedMsg struct {
	reels    []*storage.Reel
	position *storage.Position
}

type refreshDoneMsg struct {
	added    int
	docCount int
	err      error
}

type sourceAddedMsg struct {
	source *storage.Source
	err    error
}

type searchTickMsg struct {
	seq   uint64
	query string
}

type searchResultsMsg struct {
	seq     uint64
	results []*search.Result
}

type positionTickMsg struct{ seq uint64 }

type statusClearMsg struct{ seq uint64 }

type holdTickMsg struct{ seq uint64 }

type launchedMsg struct{ err error }

type errorMsg struct{ err error }

// loadReels reads the feed. withPosition also restores where the last
// session stopped.
func (a *App) loadReels(withPosition bool) tea.Cmd {
	manager, store := a.manager, a.store
	return func() tea.Msg {
		if store == nil {
			return errorMsg{err: wrapErr("loading reels", errUnavailable)}
		}
		var (
			reels []*storage.Reel
			err   error
		)
		if manager != nil {
			reels, err = manager.Reels(feedLimit)
		} else {
			reels, err = store.GetReels("", feedLimit)
		}
		if err != nil {
			return errorMsg{err: wrapErr("loading reels", err)}
		}
		msg := reelsLoadedMsg{reels: reels}
		if withPosition {
			pos, ok, err := store.GetPosition()
			if err != nil {
				return errorMsg{err: wrapErr("loading position", err)}
			}
			if ok {
				msg.position = &pos
			}
		}
		return msg
	}
}

func (a *App) refreshAll() tea.Cmd {
	manager, searcher := a.manager, a.searcher
	return func() tea.Msg {
		if manager == nil {
			return errorMsg{err: wrapErr("refresh", errUnavailable)}
		}
		added, err := manager.RefreshAll(context.Background())
		docCount := -1
		if dc, ok := searcher.(search.DocCounter); ok {
			if n, countErr := dc.DocCount(); countErr == nil {
				docCount = n
			}
		}
		return refreshDoneMsg{added: added, docCount: docCount, err: err}
	}
}

func (a *App) addSource(rawURL string) tea.Cmd {
	manager := a.manager
	return func() tea.Msg {
		if manager == nil {
			return sourceAddedMsg{err: wrapErr("adding source", errUnavailable)}
		}
		src, err := manager.AddSource(context.Background(), rawURL)
		if err != nil {
			return sourceAddedMsg{err: wrapErr("adding source", err)}
		}
		return sourceAddedMsg{source: src}
	}
}

// scheduleSearch debounces typing: only the tick carrying the latest seq
// turns into a search.
func (a *App) scheduleSearch(query string) tea.Cmd {
	a.searchSeq++
	seq := a.searchSeq
	if len([]rune(query)) < 2 {
		return a.searchList.SetItems(nil)
	}
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq, query: query}
	})
}

func (a *App) performSearch(query string) tea.Cmd {
	searcher, seq := a.searcher, a.searchSeq
	return func() tea.Msg {
		if searcher == nil {
			return errorMsg{err: wrapErr("search", errUnavailable)}
		}
		results, err := searcher.Search(query, searchLimit)
		if err != nil {
			return errorMsg{err: wrapErr("search", err)}
		}
		return searchResultsMsg{seq: seq, results: results}
	}
}

func (a *App) savePosition() tea.Cmd {
	r := a.currentReel()
	if r == nil || a.store == nil {
		return nil
	}
	store := a.store
	pos := storage.Position{ReelID: r.ID, Index: a.cursor, UpdatedAt: time.Now()}
	return func() tea.Msg {
		if err := retryOperation(func() error { return store.SavePosition(pos) }); err != nil {
			return errorMsg{err: wrapErr("saving position", err)}
		}
		return nil
	}
}

func (a *App) markSeen(id string) tea.Cmd {
	store := a.store
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		if err := retryOperation(func() error { return store.MarkSeen(id) }); err != nil {
			return errorMsg{err: wrapErr("marking seen", err)}
		}
		return nil
	}
}

func (a *App) openReel(r *storage.Reel) tea.Cmd {
	launcher := a.launcher
	target := r.MediaURI
	if target == "" {
		target = r.PageURL
	}
	return func() tea.Msg {
		if launcher == nil {
			return launchedMsg{err: wrapErr("open", errUnavailable)}
		}
		return launchedMsg{err: launcher.Open(target)}
	}
}

// retryOperation retries a database operation up to 3 times with exponential backoff
func retryOperation(operation func() error) error {
	const maxRetries = 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if i < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<i))
		}
	}
	return lastErr
}

type searchResultItem struct {
	result *search.Result
}

func (i searchResultItem) Title() string {
	if r := i.result.Reel; r != nil {
		title := r.Title
		if title == "" {
			title = truncateEnd(singleLine(r.Caption), 60)
		}
		if r.Liked {
			return LikedStyle.Render("♥ ") + title
		}
		return "▶ " + title
	}
	return lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true).
		Render("◆ " + i.result.Source.Title)
}

func (i searchResultItem) Description() string {
	var parts []string
	if r := i.result.Reel; r != nil && r.Author != "" {
		parts = append(parts, "@"+r.Author)
	}
	if i.result.Source != nil {
		parts = append(parts, i.result.Source.Title)
	}
	if len(i.result.Matches) > 0 {
		parts = append(parts, i.result.Matches[0].Text)
	}
	return renderMuted(truncateEnd(strings.Join(parts, " • "), 80))
}

func (i searchResultItem) FilterValue() string {
	if r := i.result.Reel; r != nil {
		return r.Title + " " + r.Caption
	}
	return i.result.Source.Title
}
