// Package keymap defines keybindings for the live crawl view.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the live view keybindings.
type KeyMap struct {
	// Quit cancels any running crawl and exits.
	Quit key.Binding

	// Failures toggles the list of skipped categories.
	Failures key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
		Failures: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "skipped categories"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Failures, k.Quit}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
