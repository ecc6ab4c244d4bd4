package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Input    lipgloss.Style
	Busy     lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Card     lipgloss.Style
	Selected lipgloss.Style
	Heading  lipgloss.Style
	Badge    lipgloss.Style
	Muted    lipgloss.Style
}

// DefaultStyles returns the default palette.
func DefaultStyles() *Styles {
	border := lipgloss.Color("#45475A")
	primary := lipgloss.Color("#2563EB")

	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CDD6F4")).
			MarginBottom(1),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6ADC8")),
		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border),
		Busy: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1")),
		Card: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(primary).
			Padding(0, 1),
		Heading: lipgloss.NewStyle().
			Bold(true),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E40AF")).
			Background(lipgloss.Color("#DBEAFE")).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")),
	}
}
