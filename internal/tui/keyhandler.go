package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type KeyHandler struct {
	app  *App
	keys keyMap
}

func NewKeyHandler(app *App) *KeyHandler {
	return &KeyHandler{app: app, keys: app.keys}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return kh.quit()
	}
	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	switch kh.app.view {
	case ViewSearch:
		return kh.handleSearchList(msg)
	case ViewHelp:
		return kh.handleHelp(msg)
	default:
		return kh.handleFeed(msg)
	}
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewAddSource:
		return kh.app.sourceInput.Focused()
	case ViewSearch:
		return kh.app.searchInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) quit() (tea.Model, tea.Cmd) {
	kh.app.releaseHold()
	return kh.app, tea.Quit
}

func (kh *KeyHandler) handleFeed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.Quit):
		return kh.quit()
	case key.Matches(msg, kh.keys.Down):
		a.moveCursor(1)
	case key.Matches(msg, kh.keys.Up):
		a.moveCursor(-1)
	case key.Matches(msg, kh.keys.Tap):
		a.tap()
	case key.Matches(msg, kh.keys.Hold):
		return a, a.toggleHold()
	case key.Matches(msg, kh.keys.Retry):
		a.retry()
	case key.Matches(msg, kh.keys.Open):
		r := a.currentReel()
		if r == nil {
			a.setStatus(MsgNothingToOpen, StatusWarn)
			return a, nil
		}
		a.releaseHold()
		a.setStatus(MsgOpening, StatusInfo)
		return a, a.openReel(r)
	case key.Matches(msg, kh.keys.Refresh):
		if a.busy {
			return a, nil
		}
		a.busy = true
		a.setStatus(MsgRefreshing, StatusInfo)
		return a, a.refreshAll()
	case key.Matches(msg, kh.keys.Search):
		return kh.enterSearch()
	case key.Matches(msg, kh.keys.Add):
		a.err = nil
		a.setView(ViewAddSource)
		return a, a.sourceInput.Focus()
	case key.Matches(msg, kh.keys.Help):
		a.setView(ViewHelp)
		a.renderHelpView()
	case key.Matches(msg, kh.keys.Back):
		a.err = nil
	}
	return a, nil
}

func (kh *KeyHandler) enterSearch() (tea.Model, tea.Cmd) {
	a := kh.app
	a.err = nil
	a.setView(ViewSearch)
	return a, a.searchInput.Focus()
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "esc":
		return kh.navigateBack()
	case "enter":
		return kh.handleTextInputEnter()
	case "tab", "down":
		if a.view == ViewSearch && len(a.searchList.Items()) > 0 {
			a.searchInput.Blur()
			a.searchList.Select(0)
			return a, nil
		}
	}

	if a.view == ViewAddSource {
		var cmd tea.Cmd
		a.sourceInput, cmd = a.sourceInput.Update(msg)
		return a, cmd
	}

	before := a.searchInput.Value()
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	if q := a.searchInput.Value(); q != before {
		return a, tea.Batch(cmd, a.scheduleSearch(strings.TrimSpace(q)))
	}
	return a, cmd
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewAddSource:
		input := strings.TrimSpace(a.sourceInput.Value())
		if input == "" || a.busy {
			return a, nil
		}
		a.busy = true
		a.setStatus(MsgAddingSource, StatusInfo)
		return a, a.addSource(input)
	case ViewSearch:
		if items := a.searchList.Items(); len(items) > 0 {
			if item, ok := items[0].(searchResultItem); ok {
				return kh.selectSearchResult(item)
			}
		}
	}
	return a, nil
}

func (kh *KeyHandler) handleSearchList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.Back):
		return kh.navigateBack()
	case msg.String() == "enter":
		if item, ok := a.searchList.SelectedItem().(searchResultItem); ok {
			return kh.selectSearchResult(item)
		}
		return a, nil
	case msg.String() == "tab", msg.String() == "shift+tab",
		msg.String() == "up" && a.searchList.Index() == 0:
		return a, a.searchInput.Focus()
	}
	var cmd tea.Cmd
	a.searchList, cmd = a.searchList.Update(msg)
	return a, cmd
}

func (kh *KeyHandler) selectSearchResult(item searchResultItem) (tea.Model, tea.Cmd) {
	a := kh.app
	a.searchInput.Blur()
	a.setView(ViewFeed)

	target := ""
	if item.result.Reel != nil {
		target = item.result.Reel.ID
	} else if item.result.Source != nil {
		for _, r := range a.reels {
			if r.SourceID == item.result.Source.ID {
				target = r.ID
				break
			}
		}
	}
	if !a.jumpTo(target) {
		a.setStatus(MsgNoResults, StatusWarn)
	}
	return a, nil
}

func (kh *KeyHandler) handleHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.Quit):
		return kh.quit()
	case key.Matches(msg, kh.keys.Back), key.Matches(msg, kh.keys.Help):
		return kh.navigateBack()
	}
	var cmd tea.Cmd
	a.helpView, cmd = a.helpView.Update(msg)
	return a, cmd
}

// navigateBack leaves any overlay for the feed.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	a.searchInput.Blur()
	a.sourceInput.Blur()
	a.err = nil
	a.setView(ViewFeed)
	return a, nil
}

// GetHelpForCurrentView lists the hints shown in the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	switch kh.app.view {
	case ViewSearch:
		if kh.app.searchInput.Focused() {
			return []string{"Type to search", "Tab/↓: results", "Esc: back"}
		}
		return []string{"↑↓: navigate", "Enter: play", "Tab: search box", "Esc: back"}
	case ViewAddSource:
		return []string{"Enter: add", "Esc: cancel"}
	case ViewHelp:
		return []string{"↑↓: scroll", keyLabel(kh.app.config.Keys.Bindings.Back) + ": back"}
	}
	return nil
}
