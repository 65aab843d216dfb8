package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - powered on, ready
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors
	WarningColor = lipgloss.Color("#FFA500") // Orange - muted, reconnecting
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
	DefaultHeight    = 24
)

var (
	// HeaderTitleStyle is for the receiver or command title
	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	// HeaderCommandStyle is for the command path (e.g., "anthemctl status")
	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	HeaderParamKeyStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	HeaderParamValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(18)

	ResultValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	TroubleshootingTitleStyle = lipgloss.NewStyle().
					Foreground(MutedColor).
					Bold(true)

	TroubleshootingItemStyle = lipgloss.NewStyle().
					Foreground(MutedColor)

	// Zone table
	ZoneNameStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true).
			Width(14)

	ZoneSelectedStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true).
				Width(14)

	PowerOnStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	PowerOffStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	UnknownStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	ActivityStyle = lipgloss.NewStyle().
			Foreground(MutedColor)
)

// Status markers
const (
	SuccessMarker  = "✓"
	FailureMarker  = "✗"
	SelectedMarker = "▸"
	UnknownValue   = "—"
)

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _ := GetTerminalSize()
	return width
}

// GetTerminalSize returns the current terminal width and height
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, DefaultHeight
	}
	return clampWidth(width), height
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func clampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// HeaderBorderStyle returns the border style for command headers
func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2) // Account for border characters
}

// SuccessBoxStyle returns the border style for success result boxes
func SuccessBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SuccessColor).
		Width(width - 2).
		Padding(0, 2)
}

// ErrorBoxStyle returns the border style for error result boxes
func ErrorBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ErrorColor).
		Width(width - 2).
		Padding(0, 2)
}

// TroubleshootingBoxStyle returns the border style for troubleshooting sections
func TroubleshootingBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(width - 8). // Indented within error box
		Padding(0, 1)
}

// RenderHorizontalDivider creates a horizontal line of the specified width
func RenderHorizontalDivider(width int, char string) string {
	if width < 1 {
		width = 1
	}
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat(char, width))
}
