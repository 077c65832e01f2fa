package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	ColorPrimary   = lipgloss.Color("205") // Pink
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Orange/Yellow
	ColorText      = lipgloss.Color("252") // White/Gray
	ColorCyan      = lipgloss.Color("87")  // Cyan for due today

	// Base Styles
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleText    = lipgloss.NewStyle().Foreground(ColorText)

	// StyleHeader has no padding: table cells are padded to column width first.
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	// Row styles by task state
	StyleDone     = lipgloss.NewStyle().Foreground(ColorSecondary).Strikethrough(true)
	StyleOverdue  = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleDueToday = lipgloss.NewStyle().Foreground(ColorCyan)

	// Save status badges
	StyleBadge        = lipgloss.NewStyle().Padding(0, 1).Bold(true)
	StyleBadgeSaved   = StyleBadge.Foreground(ColorSuccess)
	StyleBadgeUnsaved = StyleBadge.Foreground(ColorWarning)
	StyleBadgeSaving  = StyleBadge.Foreground(ColorSecondary)
	StyleBadgeError   = StyleBadge.Foreground(ColorError)
)

// Icon returns a styled icon string
func Icon(icon string, style lipgloss.Style) string {
	return style.Render(icon)
}
