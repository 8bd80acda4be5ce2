package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorNavy   = lipgloss.Color("#000080")
	ColorWhite  = lipgloss.Color("#FFFFFF")
	ColorOrange = lipgloss.Color("#FFA500")
	ColorGray   = lipgloss.Color("#808080")
)

// DefaultWidth matches the 320px panel at roughly 8px per cell.
const DefaultWidth = 40

// bodyRows keeps the soft keys pinned to the bottom.
const bodyRows = 7

var (
	barStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite).
			Bold(true).
			Align(lipgloss.Center)

	lineStyle      = lipgloss.NewStyle().Foreground(ColorWhite).PaddingLeft(1)
	highlightStyle = lipgloss.NewStyle().Foreground(ColorOrange).PaddingLeft(1)
	statusStyle    = lipgloss.NewStyle().Foreground(ColorWhite).Align(lipgloss.Center)
	helpStyle      = lipgloss.NewStyle().Foreground(ColorGray)
)
