package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/reels/internal/config"
)

type keyMap struct {
	Down    key.Binding
	Up      key.Binding
	Tap     key.Binding
	Hold    key.Binding
	Open    key.Binding
	Add     key.Binding
	Search  key.Binding
	Refresh key.Binding
	Retry   key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap(b config.KeyBindings) keyMap {
	return keyMap{
		Down:    binding(b.Down, "next", "down"),
		Up:      binding(b.Up, "previous", "up"),
		Tap:     binding(b.Tap, "tap: mute • twice: like"),
		Hold:    binding(b.Hold, "hold/release"),
		Open:    binding(b.Open, "open in player"),
		Add:     binding(b.Add, "add source"),
		Search:  binding(b.Search, "search"),
		Refresh: binding(b.Refresh, "refresh"),
		Retry:   binding(b.Retry, "retry"),
		Back:    binding(b.Back, "back"),
		Help:    binding(b.Help, "help"),
		Quit:    binding(b.Quit, "quit", "ctrl+c"),
	}
}

func binding(k, desc string, extra ...string) key.Binding {
	keys := append([]string{k}, extra...)
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(keyLabel(k), desc),
	)
}

// keyLabel names keys that would otherwise render as blanks.
func keyLabel(k string) string {
	switch k {
	case " ":
		return "space"
	case "":
		return "unbound"
	}
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Tap, k.Hold, k.Search, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.Tap, k.Hold},
		{k.Open, k.Retry, k.Refresh, k.Add},
		{k.Search, k.Back, k.Help, k.Quit},
	}
}
