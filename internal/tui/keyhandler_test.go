package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestKeyHandler_ViewTransitions(t *testing.T) {
	tests := []struct {
		name string
		from View
		key  tea.KeyMsg
		want View
	}{
		{"search from feed", ViewFeed, keyRune('/'), ViewSearch},
		{"add source from feed", ViewFeed, keyRune('a'), ViewAddSource},
		{"help from feed", ViewFeed, keyRune('?'), ViewHelp},
		{"help closes with help key", ViewHelp, keyRune('?'), ViewFeed},
		{"help closes with esc", ViewHelp, tea.KeyMsg{Type: tea.KeyEsc}, ViewFeed},
		{"search list esc", ViewSearch, tea.KeyMsg{Type: tea.KeyEsc}, ViewFeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := newTestApp(t)
			app.view = tt.from

			model, _ := app.Update(tt.key)
			assert.Equal(t, tt.want, model.(*App).view)
		})
	}
}

func TestKeyHandler_TextInputSwallowsFeedKeys(t *testing.T) {
	app, _, _ := loadedApp(t)

	app.Update(keyRune('a'))
	for _, r := range "jq" {
		app.Update(keyRune(r))
	}
	assert.Equal(t, 0, app.cursor)
	assert.Equal(t, "jq", app.sourceInput.Value())
}

func TestKeyHandler_QuitReleasesHold(t *testing.T) {
	app, _, _ := loadedApp(t)
	app.Update(keyRune('h'))

	_, cmd := app.keyHandler.HandleKey(keyRune('q'))
	assert.False(t, app.holding)
	assert.NotNil(t, cmd)
}

func TestKeyHandler_CustomBindings(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.config.Keys.Bindings.Down = "n"
	app.keys = newKeyMap(app.config.Keys.Bindings)
	app.keyHandler = NewKeyHandler(app)
	app.Update(reelsLoadedMsg{reels: testReels(t, app.store, calmIDs...)})

	app.Update(keyRune('j'))
	assert.Equal(t, 0, app.cursor)
	app.Update(keyRune('n'))
	assert.Equal(t, 1, app.cursor)
	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, app.cursor)
}

func TestKeyLabel(t *testing.T) {
	assert.Equal(t, "space", keyLabel(" "))
	assert.Equal(t, "unbound", keyLabel(""))
	assert.Equal(t, "j", keyLabel("j"))
}

func TestHelpForCurrentView(t *testing.T) {
	app, _, _ := newTestApp(t)

	assert.Empty(t, app.keyHandler.GetHelpForCurrentView())
	app.view = ViewAddSource
	assert.Equal(t, []string{"Enter: add", "Esc: cancel"}, app.keyHandler.GetHelpForCurrentView())
}
