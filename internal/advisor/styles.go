package advisor

import "github.com/charmbracelet/lipgloss"

// Styles contains styling for the advisor shell.
type Styles struct {
	Prompt  lipgloss.Style
	Info    lipgloss.Style
	Action  lipgloss.Style
	Value   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		Action:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#96CEB4")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFEAA7")).Bold(true),
	}
}
