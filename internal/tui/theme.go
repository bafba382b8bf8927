package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, the subset the screens use.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
)

const (
	colorBrand   = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(colorBrand)
	tabStyle       = lipgloss.NewStyle().Foreground(colorOverlay1).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Foreground(colorText).Background(colorSurface1).Bold(true).Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	cursorStyle    = lipgloss.NewStyle().Foreground(colorFocus).Bold(true)
	helpStyle      = lipgloss.NewStyle().Foreground(colorOverlay1)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	warningStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	amountStyle    = lipgloss.NewStyle().Foreground(colorPeach)
	modalStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFocus).Padding(0, 1)
)
