package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the queue screen.
type Styles struct {
	Header   lipgloss.Style
	Nav      lipgloss.Style
	Title    lipgloss.Style
	Cursor   lipgloss.Style
	Ticket   lipgloss.Style
	Meta     lipgloss.Style
	Label    lipgloss.Style
	Error    lipgloss.Style
	Notice   lipgloss.Style
	Prompt   lipgloss.Style
	Button   lipgloss.Style
	Selected lipgloss.Style
}

// DefaultStyles is the built-in dark-terminal look.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#1D2330")).Padding(0, 1),
		Nav:      lipgloss.NewStyle().Foreground(lipgloss.Color("#CFE3FF")),
		Title:    lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7AA2F7")).Bold(true),
		Ticket:   lipgloss.NewStyle().Bold(true),
		Meta:     lipgloss.NewStyle().Foreground(lipgloss.Color("#5B6474")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9AA5B1")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75")).Bold(true),
		Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		Prompt:   lipgloss.NewStyle().Italic(true),
		Button:   lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379")),
		Selected: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}
