package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Select   key.Binding
	Deselect key.Binding
	Toggle   key.Binding
	Label    key.Binding
	Unlabel  key.Binding
	Reset    key.Binding
	Where    key.Binding
	Export   key.Binding
	Escape   key.Binding
	Next     key.Binding
	Prev     key.Binding
	Close    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Select:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Deselect: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "deselect")),
		Toggle:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle")),
		Label:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "label")),
		Unlabel:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unlabel")),
		Reset:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset labels")),
		Where:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "select where")),
		Export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next model")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous model")),
		Close:    key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "close model")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Deselect, k.Label, k.Export, k.Escape, k.Next, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Select, k.Deselect, k.Toggle, k.Where, k.Escape},
		{k.Label, k.Unlabel, k.Reset, k.Export},
		{k.Next, k.Prev, k.Close, k.Help, k.Quit},
	}
}
