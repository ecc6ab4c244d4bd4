package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Parse runs a parse pass over the textarea contents.
	Parse key.Binding

	// Up / Down move the result selection.
	Up   key.Binding
	Down key.Binding

	// Focus toggles between the textarea and the result list.
	Focus key.Binding

	// Save writes the selected result to the output directory.
	Save key.Binding

	// Open hands the selected result to the calendar application.
	Open key.Binding

	// Copy places the selected result's document on the clipboard.
	Copy key.Binding

	// Quit exits the application.
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Parse: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "parse"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "input/results"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save .ics"),
		),
		Open: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "open in calendar"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy .ics"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Parse, k.Focus, k.Up, k.Down, k.Save, k.Open, k.Copy, k.Quit}
}

// FullHelp returns all bindings grouped by column.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Parse, k.Focus},
		{k.Up, k.Down},
		{k.Save, k.Open, k.Copy},
		{k.Quit},
	}
}
