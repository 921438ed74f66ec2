package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Back    key.Binding
	Quit    key.Binding
	Help    key.Binding
	Refresh key.Binding
	Connect key.Binding

	// colour round builder
	Red    key.Binding
	Yellow key.Binding
	Green  key.Binding
	Blue   key.Binding
	Send   key.Binding
	Save   key.Binding
	Clear  key.Binding

	// hub commands
	Pad    key.Binding
	Cancel key.Binding
}

// DefaultKeyMap returns the default vim-style keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", "l", "right"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "h", "left"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		Connect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "code"),
		),
		Red: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "red"),
		),
		Yellow: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yellow"),
		),
		Green: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "green"),
		),
		Blue: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "blue"),
		),
		Send: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "send"),
		),
		Save: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "save preset"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x", "backspace"),
			key.WithHelp("x", "clear"),
		),
		Pad: key.NewBinding(
			key.WithKeys("1", "2", "3"),
			key.WithHelp("1-3", "pad"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "cancel game"),
		),
	}
}

// ShortHelp returns keybindings to show in the help view (horizontal).
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Back, k.Connect, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Refresh},
		{k.Red, k.Yellow, k.Green, k.Blue},
		{k.Send, k.Save, k.Clear, k.Pad, k.Cancel},
		{k.Connect, k.Help, k.Quit},
	}
}
