package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the viewer.
type keyMap struct {
	Quit       key.Binding
	Pause      key.Binding
	FasterPoll key.Binding
	SlowerPoll key.Binding

	AddAntenna    key.Binding
	RemoveAntenna key.Binding
	ToggleHide    key.Binding
	ToggleLog     key.Binding
	YLimits       key.Binding

	Up     key.Binding
	Down   key.Binding
	Zoom   key.Binding
	Help   key.Binding
	Escape key.Binding
	Tab    key.Binding
}

// defaultKeyMap returns the default bindings.
func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause/resume"),
		),
		FasterPoll: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "poll faster"),
		),
		SlowerPoll: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "poll slower"),
		),
		AddAntenna: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new antenna"),
		),
		RemoveAntenna: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "drop antenna"),
		),
		ToggleHide: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "hide/show"),
		),
		ToggleLog: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "log/linear"),
		),
		YLimits: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "y-limits"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "select up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "select down"),
		),
		Zoom: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "zoom"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back/quit"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch field"),
		),
	}
}

// helpEntries lists the bindings shown in the footer, in display order.
func (k keyMap) helpEntries() []key.Binding {
	return []key.Binding{
		k.Pause, k.SlowerPoll, k.AddAntenna, k.RemoveAntenna,
		k.ToggleLog, k.YLimits, k.Zoom, k.Help, k.Quit,
	}
}
