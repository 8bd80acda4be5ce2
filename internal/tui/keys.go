package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap binds the keyboard to the remote's buttons.
type KeyMap struct {
	A     key.Binding
	B     key.Binding
	C     key.Binding
	Power key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		A: key.NewBinding(
			key.WithKeys("a", "left"),
			key.WithHelp("a/←", "left button"),
		),
		B: key.NewBinding(
			key.WithKeys("b", "enter"),
			key.WithHelp("b/enter", "middle button"),
		),
		C: key.NewBinding(
			key.WithKeys("c", "right"),
			key.WithHelp("c/→", "right button"),
		),
		Power: key.NewBinding(
			key.WithKeys("B", "p"),
			key.WithHelp("B/p", "long press: power off"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
