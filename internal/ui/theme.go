package ui

import "github.com/charmbracelet/lipgloss"

// Theme defines the palette for the viewer.
type Theme struct {
	Name string

	Text    string
	Muted   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Border  string
	Focus   string
}

// DefaultTheme is tuned for dark terminals.
func DefaultTheme() Theme {
	return Theme{
		Name:    "default",
		Text:    "#c8d3f5",
		Muted:   "#7a88cf",
		Accent:  "#82aaff",
		Success: "#c3e88d",
		Warning: "#ffc777",
		Danger:  "#ff757f",
		Border:  "#3b4261",
		Focus:   "#82aaff",
	}
}

// Styles bundles the lipgloss styles derived from a Theme.
type Styles struct {
	Title    lipgloss.Style
	Status   lipgloss.Style
	Help     lipgloss.Style
	Muted    lipgloss.Style
	ErrText  lipgloss.Style
	WarnText lipgloss.Style
	OkText   lipgloss.Style
	Trace    lipgloss.Style

	Panel       lipgloss.Style
	PanelFocus  lipgloss.Style
	PanelTitle  lipgloss.Style
	Modal       lipgloss.Style
	ModalTitle  lipgloss.Style
	ListItem    lipgloss.Style
	ListFocused lipgloss.Style
}

// Styles materializes the theme.
func (t Theme) Styles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),
		ErrText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)),
		WarnText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),
		OkText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)),
		Trace: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)),
		PanelFocus: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Focus)),
		PanelTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)).
			Bold(true),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Focus)).
			Padding(1, 2),
		ModalTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		ListItem: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),
		ListFocused: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
	}
}

// statusColor picks the border color for a slot status string.
func (t Theme) statusColor(status string) string {
	switch status {
	case "fresh":
		return t.Success
	case "stale":
		return t.Warning
	case "failed":
		return t.Danger
	default:
		return t.Border
	}
}
