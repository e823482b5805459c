package tui

import "github.com/charmbracelet/lipgloss"

const (
	primaryColor   = "#2563EB" // Blue
	secondaryColor = "#10B981" // Green
	errorColor     = "#EF4444" // Red
	dimColor       = "#6B7280" // Gray
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Width(12)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor))

	// footerStyle is the fixed bar holding the logout affordance.
	footerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(lipgloss.Color("#9CA3AF")).
			Padding(0, 1)
)
