package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/reels/internal/aspect"
	"github.com/pders01/reels/internal/config"
	"github.com/pders01/reels/internal/debuglog"
	"github.com/pders01/reels/internal/gesture"
	"github.com/pders01/reels/internal/media"
	"github.com/pders01/reels/internal/playback"
	"github.com/pders01/reels/internal/search"
	"github.com/pders01/reels/internal/source"
	"github.com/pders01/reels/internal/storage"
	activation "github.com/pders01/reels/internal/viewport"
)

// feedLimit caps how many reels one session loads.
const feedLimit = 500

// App is the bubbletea model hosting the reel feed. It owns the playback
// coordinator and drives it from Update, so coordinator calls, player
// callbacks and timers are all serialized on the bubbletea loop.
type App struct {
	config   *config.Config
	store    *storage.Store
	manager  *source.Manager
	searcher search.Searcher
	launcher *media.Launcher

	loop       *eventLoop
	coord      *playback.Coordinator
	keys       keyMap
	keyHandler *KeyHandler

	help        help.Model
	spinner     spinner.Model
	progress    progress.Model
	searchInput textinput.Model
	sourceInput textinput.Model
	searchList  list.Model
	helpView    viewport.Model

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int

	view         View
	previousView View

	reels   []*storage.Reel
	cursor  int
	players map[int]*simPlayer

	termFocused bool
	holding     bool
	holdID      string
	holdSeq     uint64
	searchSeq   uint64
	positionSeq uint64
	statusSeq   uint64

	status     string
	statusKind StatusKind
	busy       bool
	err        error

	width  int
	height int
}

// NewApp wires the feed host. manager, searcher and launcher may be nil; the
// matching actions then report that they are unavailable.
func NewApp(cfg *config.Config, store *storage.Store, manager *source.Manager, searcher search.Searcher, launcher *media.Launcher) (*App, error) {
	ratios, err := cfg.Ratios()
	if err != nil {
		return nil, err
	}
	fallback, err := cfg.FallbackRatio()
	if err != nil {
		return nil, err
	}

	ApplyTheme(cfg.UI.Colors)

	si := textinput.New()
	si.Placeholder = "Search reels and sources..."
	ti := textinput.New()
	ti.Placeholder = "Enter source URL..."

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› results"
	searchList.SetShowStatusBar(false)
	searchList.SetShowHelp(false)
	searchList.SetFilteringEnabled(false)

	a := &App{
		config:      cfg,
		store:       store,
		manager:     manager,
		searcher:    searcher,
		launcher:    launcher,
		loop:        newEventLoop(nil),
		keys:        newKeyMap(cfg.Keys.Bindings),
		help:        help.New(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress:    progress.New(progress.WithGradient(string(PrimaryColor), string(SecondaryColor)), progress.WithoutPercentage()),
		searchInput: si,
		sourceInput: ti,
		searchList:  searchList,
		helpView:    viewport.New(0, 0),
		view:        ViewFeed,
		players:     make(map[int]*simPlayer),
		termFocused: true,
	}
	a.spinner.Style = StatusInfoStyle

	var liker playback.Liker
	if store != nil {
		liker = store
	}
	a.coord, err = playback.NewCoordinator(playback.Options{
		Clock: a.loop.clock(),
		Policy: activation.Policy{
			MinDwell:    cfg.Playback.MinDwell,
			MinFraction: cfg.Playback.MinVisibleFraction,
		},
		DoubleTapWindow: cfg.Playback.DoubleTapWindow,
		AllowedRatios:   ratios,
		DefaultRatio:    fallback,
		Loop:            cfg.Playback.Loop,
		StartMuted:      cfg.Playback.StartMuted,
		Liker:           liker,
		Observer:        a,
	})
	if err != nil {
		return nil, fmt.Errorf("creating coordinator: %w", err)
	}
	a.keyHandler = NewKeyHandler(a)
	return a, nil
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.loadReels(true),
		a.spinner.Tick,
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		model, cmd := a.keyHandler.HandleKey(msg)
		return model, tea.Batch(cmd, a.loop.drain())

	case tea.FocusMsg:
		a.termFocused = true
		a.syncFocus()

	case tea.BlurMsg:
		a.termFocused = false
		a.syncFocus()

	case timerFiredMsg:
		a.loop.fire(msg.id)

	case holdTickMsg:
		if a.holding && msg.seq == a.holdSeq {
			a.coord.LongPressTrigger(a.holdID)
		}

	case reelsLoadedMsg:
		a.setReels(msg.reels, msg.position)

	case refreshDoneMsg:
		a.busy = false
		kind := StatusSuccess
		if msg.err != nil {
			kind = StatusWarn
			debuglog.Warnf("refresh finished with errors: %v", msg.err)
		}
		a.setStatus(MsgRefreshSummary(msg.added, errorCount(msg.err), msg.docCount), kind)
		cmds = append(cmds, a.loadReels(false))

	case sourceAddedMsg:
		a.busy = false
		if msg.err != nil {
			a.err = msg.err
			break
		}
		a.err = nil
		a.sourceInput.SetValue("")
		a.setView(ViewFeed)
		a.setStatus(MsgAddedSource(msg.source.Title), StatusSuccess)
		cmds = append(cmds, a.loadReels(false))

	case searchTickMsg:
		if msg.seq == a.searchSeq && a.view == ViewSearch {
			cmds = append(cmds, a.performSearch(msg.query))
		}

	case searchResultsMsg:
		if a.view == ViewSearch && msg.seq == a.searchSeq {
			items := make([]list.Item, len(msg.results))
			for i, r := range msg.results {
				items[i] = searchResultItem{result: r}
			}
			cmds = append(cmds, a.searchList.SetItems(items))
		}

	case positionTickMsg:
		if msg.seq == a.positionSeq {
			cmds = append(cmds, a.savePosition())
		}

	case statusClearMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}

	case launchedMsg:
		if msg.err != nil {
			a.setStatus(msg.err.Error(), StatusError)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case errorMsg:
		a.err = msg.err
	}

	if a.view == ViewHelp {
		switch msg.(type) {
		case tea.MouseMsg:
			var cmd tea.Cmd
			a.helpView, cmd = a.helpView.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, a.loop.drain())
	return a, tea.Batch(cmds...)
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.help.Width = width

	listHeight := height - 10
	if listHeight < 5 {
		listHeight = 5
	}
	a.searchList.SetSize(width, listHeight)
	a.helpView.Width = width
	a.helpView.Height = height - 3

	inputWidth := width - 8
	if inputWidth < 20 {
		inputWidth = width
	}
	a.searchInput.Width = inputWidth
	a.sourceInput.Width = inputWidth

	a.progress.Width = a.cardWidth() - 4
}

// setReels replaces the feed. Reels that dropped out are forgotten by the
// coordinator. The cursor follows the reel it was on, or the saved position
// on first load, and otherwise keeps its index.
func (a *App) setReels(reels []*storage.Reel, pos *storage.Position) {
	current, fallback := "", a.cursor
	if r := a.currentReel(); r != nil {
		current = r.ID
	} else if pos != nil {
		current, fallback = pos.ReelID, pos.Index
	}

	kept := make(map[string]bool, len(reels))
	for _, r := range reels {
		kept[r.ID] = true
	}
	for _, r := range a.reels {
		if !kept[r.ID] {
			a.coord.Forget(r.ID)
		}
	}

	a.reels = reels
	if len(reels) == 0 {
		a.cursor = 0
		a.clearWindow()
		return
	}
	a.cursor = indexOf(reels, current)
	if a.cursor < 0 {
		a.cursor = min(max(fallback, 0), len(reels)-1)
	}
	a.syncWindow()
}

func indexOf(reels []*storage.Reel, id string) int {
	if id == "" {
		return -1
	}
	for i, r := range reels {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (a *App) currentReel() *storage.Reel {
	if a.cursor < 0 || a.cursor >= len(a.reels) {
		return nil
	}
	return a.reels[a.cursor]
}

// moveCursor scrolls the feed by delta reels.
func (a *App) moveCursor(delta int) {
	if len(a.reels) == 0 {
		return
	}
	next := a.cursor + delta
	if next < 0 {
		next = 0
	}
	if next >= len(a.reels) {
		next = len(a.reels) - 1
	}
	if next == a.cursor {
		return
	}
	a.releaseHold()
	a.cursor = next
	a.syncWindow()
	a.schedulePositionSave()
}

// jumpTo moves the cursor to the reel with id, if it is in the feed.
func (a *App) jumpTo(id string) bool {
	idx := indexOf(a.reels, id)
	if idx < 0 {
		return false
	}
	a.moveCursor(idx - a.cursor)
	return true
}

func (a *App) tap() {
	r := a.currentReel()
	if r == nil || a.holding {
		return
	}
	now := a.loop.now()
	a.coord.PressDown(r.ID, now)
	a.coord.PressUp(r.ID, now)
}

// toggleHold emulates keeping a finger on the screen: the first press goes
// down and arms the long-press timer, the second lifts it.
func (a *App) toggleHold() tea.Cmd {
	if a.holding {
		a.releaseHold()
		return nil
	}
	r := a.currentReel()
	if r == nil {
		return nil
	}
	a.holding = true
	a.holdID = r.ID
	a.holdSeq++
	seq := a.holdSeq
	a.coord.PressDown(r.ID, a.loop.now())
	return tea.Tick(a.config.Playback.LongPressThreshold, func(time.Time) tea.Msg {
		return holdTickMsg{seq: seq}
	})
}

func (a *App) releaseHold() {
	if !a.holding {
		return
	}
	a.holding = false
	a.holdSeq++
	a.coord.PressUp(a.holdID, a.loop.now())
	a.holdID = ""
}

// retry reloads the player under the cursor and clears its error.
func (a *App) retry() {
	p, ok := a.players[a.cursor]
	if !ok {
		return
	}
	a.setStatus(MsgRetrying, StatusInfo)
	p.reload()
	a.coord.Retry(a.cursor)
}

func (a *App) setView(v View) {
	if v == a.view {
		return
	}
	a.previousView = a.view
	a.view = v
	if !v.playsIn() {
		a.releaseHold()
	}
	a.syncFocus()
}

// syncFocus tells the coordinator whether the feed is on screen. Overlays
// count as leaving the feed, like navigating away from the screen.
func (a *App) syncFocus() {
	a.coord.SetFocused(a.termFocused && a.view.playsIn())
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
	a.statusSeq++
	seq := a.statusSeq
	a.loop.queue(tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} }))
}

func (a *App) schedulePositionSave() {
	a.positionSeq++
	seq := a.positionSeq
	a.loop.queue(tea.Tick(positionSaveDelay, func(time.Time) tea.Msg { return positionTickMsg{seq: seq} }))
}

// Shutdown releases players and persists the position synchronously.
func (a *App) Shutdown() error {
	a.releaseHold()
	for _, p := range a.players {
		p.release()
	}
	if a.store == nil {
		return nil
	}
	r := a.currentReel()
	if r == nil {
		return nil
	}
	return a.store.SavePosition(storage.Position{ReelID: r.ID, Index: a.cursor, UpdatedAt: time.Now()})
}

// Coordinator notifications. They run inside coordinator calls made from
// Update, so they may touch App state directly and queue commands on the loop.

func (a *App) StateChanged(index int, itemID string, from, to playback.State) {
	debuglog.WithFields(map[string]any{"index": index, "item": itemID}).Debugf("state %s -> %s", from, to)
	if to != playback.Playing || index != a.cursor {
		return
	}
	if r := a.currentReel(); r != nil && r.ID == itemID && !r.Seen {
		r.Seen = true
		a.loop.queue(a.markSeen(itemID))
	}
}

func (a *App) MuteChanged(muted bool) {
	if muted {
		a.setStatus(MsgMuted, StatusInfo)
		return
	}
	a.setStatus(MsgUnmuted, StatusInfo)
}

func (a *App) GestureResolved(ev gesture.Event) {
	debuglog.Debugf("gesture %s on %s", ev.Kind, ev.ItemID)
}

func (a *App) LikeToggled(itemID string, liked bool) {
	for _, r := range a.reels {
		if r.ID == itemID {
			r.Liked = liked
		}
	}
	if liked {
		a.setStatus(MsgLiked, StatusSuccess)
		return
	}
	a.setStatus(MsgUnliked, StatusInfo)
}

func (a *App) AspectResolved(index int, itemID string, ratio aspect.Ratio) {
	debuglog.WithFields(map[string]any{"index": index, "item": itemID}).Debugf("aspect %s", ratio)
}

func (a *App) PlayerError(index int, itemID string, err error) {
	if index == a.cursor {
		a.setStatus(MsgPlaybackFailed(err), StatusError)
	}
}

var errUnavailable = errors.New("not available in this session")
