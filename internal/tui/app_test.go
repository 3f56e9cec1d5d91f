package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/reels/internal/config"
	"github.com/pders01/reels/internal/playback"
	"github.com/pders01/reels/internal/search"
	"github.com/pders01/reels/internal/storage"
)

// These ids stay out of the simulated stall bucket.
var calmIDs = []string{"r2", "r3", "r4", "r6", "r7"}

func newTestApp(t *testing.T) (*App, *storage.Store, *fakeTime) {
	t.Helper()
	cfg := config.TestConfig()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	app, err := NewApp(cfg, store, nil, search.NewEngine(store), nil)
	require.NoError(t, err)

	ft := newFakeTime()
	app.loop.now = ft.Now
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app, store, ft
}

func testReels(t *testing.T, store *storage.Store, ids ...string) []*storage.Reel {
	t.Helper()
	reels := make([]*storage.Reel, len(ids))
	for i, id := range ids {
		reels[i] = &storage.Reel{
			ID:       id,
			SourceID: "s1",
			Title:    "Reel " + id,
			Caption:  "caption for " + id,
			Author:   "skater",
			MediaURI: "https://cdn.test/" + id + ".mp4",
			Width:    1080,
			Height:   1920,
			Duration: 5 * time.Second,
		}
	}
	require.NoError(t, store.SaveReels(reels))
	return reels
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

var spaceKey = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

func state(t *testing.T, app *App, index int) playback.State {
	t.Helper()
	s, ok := app.coord.State(index)
	require.True(t, ok, "index %d not mounted", index)
	return s
}

// loadedApp returns an app with the calm reels loaded and the first one
// playing.
func loadedApp(t *testing.T) (*App, *storage.Store, *fakeTime) {
	t.Helper()
	app, store, ft := newTestApp(t)
	app.Update(reelsLoadedMsg{reels: testReels(t, store, calmIDs...)})
	advance(app.loop, ft, time.Second)
	require.Equal(t, playback.Playing, state(t, app, 0))
	return app, store, ft
}

func TestApp_LoadMountsWindowAndActivatesAfterDwell(t *testing.T) {
	app, store, ft := newTestApp(t)
	app.Update(reelsLoadedMsg{reels: testReels(t, store, calmIDs...)})

	assert.Len(t, app.players, 3)
	assert.Equal(t, playback.Idle, state(t, app, 0), "nothing plays before the dwell elapses")

	advance(app.loop, ft, app.config.Playback.MinDwell)
	assert.Equal(t, playback.Loading, state(t, app, 0))

	advance(app.loop, ft, metadataDelay)
	assert.Equal(t, playback.Playing, state(t, app, 0))
	assert.Equal(t, "9:16", app.coord.AspectRatio("r2").Name)
	assert.True(t, app.reels[0].Seen)

	active, ok := app.coord.ActiveIndex()
	require.True(t, ok)
	assert.Equal(t, 0, active)
}

func TestApp_ScrollSwitchesPlayback(t *testing.T) {
	app, _, ft := loadedApp(t)

	app.Update(keyRune('j'))
	advance(app.loop, ft, time.Second)

	assert.Equal(t, 1, app.cursor)
	assert.Equal(t, playback.Paused, state(t, app, 0))
	assert.Equal(t, playback.Playing, state(t, app, 1))
	assert.Equal(t, time.Duration(0), app.players[0].Position(), "left reel is rewound")

	// Scrolling to the end moves the window
	for i := 0; i < 10; i++ {
		app.Update(keyRune('j'))
	}
	advance(app.loop, ft, time.Second)
	assert.Equal(t, 4, app.cursor)
	_, mounted := app.coord.State(0)
	assert.False(t, mounted)
	assert.Len(t, app.players, 3)
	assert.Equal(t, playback.Playing, state(t, app, 4))
}

func TestApp_SingleTapTogglesMute(t *testing.T) {
	app, _, ft := loadedApp(t)
	require.False(t, app.coord.Muted())

	app.Update(spaceKey)
	assert.False(t, app.coord.Muted(), "mute waits for the double tap window")

	advance(app.loop, ft, app.config.Playback.DoubleTapWindow)
	assert.True(t, app.coord.Muted())
	assert.True(t, app.players[0].muted)
	assert.True(t, app.players[1].muted, "mute is global")
	assert.Equal(t, MsgMuted, app.status)
}

func TestApp_DoubleTapLikes(t *testing.T) {
	app, store, ft := loadedApp(t)

	app.Update(spaceKey)
	advance(app.loop, ft, 50*time.Millisecond)
	app.Update(spaceKey)
	advance(app.loop, ft, time.Second)

	assert.False(t, app.coord.Muted(), "a double tap never toggles mute")
	assert.True(t, app.reels[0].Liked)
	assert.Equal(t, MsgLiked, app.status)

	stored, err := store.GetReel("r2")
	require.NoError(t, err)
	assert.True(t, stored.Liked)
}

func TestApp_HoldPausesUntilRelease(t *testing.T) {
	app, _, ft := loadedApp(t)

	_, cmd := app.Update(keyRune('h'))
	assert.NotNil(t, cmd)
	assert.True(t, app.holding)

	app.Update(holdTickMsg{seq: app.holdSeq})
	assert.Equal(t, playback.Paused, state(t, app, 0))
	pos := app.players[0].Position()
	advance(app.loop, ft, time.Second)
	assert.Equal(t, pos, app.players[0].Position())

	app.Update(keyRune('h'))
	assert.False(t, app.holding)
	assert.Equal(t, playback.Playing, state(t, app, 0))
	assert.False(t, app.coord.Muted(), "releasing a hold is not a tap")
}

func TestApp_StaleHoldTickIgnored(t *testing.T) {
	app, _, _ := loadedApp(t)

	app.Update(keyRune('h'))
	stale := app.holdSeq
	app.Update(keyRune('h'))

	app.Update(holdTickMsg{seq: stale})
	assert.Equal(t, playback.Playing, state(t, app, 0))
}

func TestApp_FocusLossPausesFeed(t *testing.T) {
	app, _, ft := loadedApp(t)

	app.Update(tea.BlurMsg{})
	assert.Equal(t, playback.Paused, state(t, app, 0))
	_, ok := app.coord.ActiveIndex()
	assert.False(t, ok)

	app.Update(tea.FocusMsg{})
	advance(app.loop, ft, time.Second)
	assert.Equal(t, playback.Playing, state(t, app, 0))
}

func TestApp_OverlaysPauseFeed(t *testing.T) {
	app, _, ft := loadedApp(t)

	app.Update(keyRune('/'))
	assert.Equal(t, ViewSearch, app.view)
	assert.False(t, app.coord.Focused())
	assert.Equal(t, playback.Paused, state(t, app, 0))

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	advance(app.loop, ft, time.Second)
	assert.Equal(t, ViewFeed, app.view)
	assert.Equal(t, playback.Playing, state(t, app, 0))
}

func TestApp_PlayerErrorAndRetry(t *testing.T) {
	app, store, ft := newTestApp(t)
	reels := testReels(t, store, calmIDs...)
	reels[0].MediaURI = ""
	app.Update(reelsLoadedMsg{reels: reels})
	advance(app.loop, ft, time.Second)

	assert.Equal(t, playback.Idle, state(t, app, 0))
	_, ok := app.coord.ActiveIndex()
	assert.False(t, ok, "a failed slot is not activated")
	assert.True(t, strings.HasPrefix(app.status, "Playback failed"))
	assert.Contains(t, app.View(), "✗")

	reels[0].MediaURI = "https://cdn.test/fixed.mp4"
	app.Update(keyRune('R'))
	advance(app.loop, ft, time.Second)
	assert.Equal(t, playback.Playing, state(t, app, 0))
}

func TestApp_ReloadKeepsCursorOnReel(t *testing.T) {
	app, store, ft := loadedApp(t)
	app.Update(keyRune('j'))
	advance(app.loop, ft, time.Second)
	require.Equal(t, "r3", app.currentReel().ID)

	// r2 was evicted upstream, a new reel arrived at the top
	reels := testReels(t, store, "r8", "r3", "r4", "r6", "r7")
	app.Update(reelsLoadedMsg{reels: reels})
	advance(app.loop, ft, time.Second)

	assert.Equal(t, 1, app.cursor)
	assert.Equal(t, "r3", app.currentReel().ID)
	assert.Equal(t, "r8", app.players[0].reel.ID)
	assert.Equal(t, playback.Playing, state(t, app, 1))
}

func TestApp_RestoresSavedPosition(t *testing.T) {
	app, store, _ := newTestApp(t)
	reels := testReels(t, store, calmIDs...)

	app.Update(reelsLoadedMsg{reels: reels, position: &storage.Position{ReelID: "r6", Index: 3}})
	assert.Equal(t, 3, app.cursor)

	other, _, _ := newTestApp(t)
	other.Update(reelsLoadedMsg{reels: reels, position: &storage.Position{ReelID: "gone", Index: 2}})
	assert.Equal(t, 2, other.cursor, "falls back to the saved index")
}

func TestApp_ShutdownSavesPosition(t *testing.T) {
	app, store, _ := loadedApp(t)
	app.Update(keyRune('j'))
	app.Update(keyRune('j'))

	require.NoError(t, app.Shutdown())
	pos, ok, err := store.GetPosition()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r4", pos.ReelID)
	assert.Equal(t, 2, pos.Index)
	for _, p := range app.players {
		assert.True(t, p.released)
	}
}

func TestApp_EmptyFeedShowsWelcome(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Update(reelsLoadedMsg{})

	view := app.View()
	assert.Contains(t, view, "Press a to add your first source")
	assert.Empty(t, app.players)
}

func TestApp_ViewShowsReel(t *testing.T) {
	app, _, _ := loadedApp(t)

	view := app.View()
	assert.Contains(t, view, "1/5")
	assert.Contains(t, view, "9:16")
	assert.Contains(t, view, "@skater")
	assert.Contains(t, view, "↓ Reel r3")
}

func TestApp_RefreshDoneReportsErrors(t *testing.T) {
	app, _, _ := loadedApp(t)
	app.busy = true

	_, cmd := app.Update(refreshDoneMsg{added: 3, docCount: -1, err: errors.Join(errors.New("a"), errors.New("b"))})
	assert.NotNil(t, cmd)
	assert.False(t, app.busy)
	assert.Equal(t, "Refreshed: 3 reels • 2 errors", app.status)
	assert.Equal(t, StatusWarn, app.statusKind)
}

func TestApp_StatusClearsOnlyForLatest(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.setStatus("first", StatusInfo)
	first := app.statusSeq
	app.setStatus("second", StatusInfo)

	app.Update(statusClearMsg{seq: first})
	assert.Equal(t, "second", app.status)
	app.Update(statusClearMsg{seq: app.statusSeq})
	assert.Empty(t, app.status)
}

func TestApp_SearchResultsIgnoredWhenStale(t *testing.T) {
	app, store, _ := loadedApp(t)
	app.Update(keyRune('/'))
	app.scheduleSearch("reel")

	reel, err := store.GetReel("r4")
	require.NoError(t, err)
	results := []*search.Result{{Reel: reel, Source: &storage.Source{ID: "s1", Title: "Skate"}}}

	app.Update(searchResultsMsg{seq: app.searchSeq - 1, results: results})
	assert.Empty(t, app.searchList.Items())

	app.Update(searchResultsMsg{seq: app.searchSeq, results: results})
	require.Len(t, app.searchList.Items(), 1)

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewFeed, app.view)
	assert.Equal(t, "r4", app.currentReel().ID)
}
