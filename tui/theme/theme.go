// Package theme centralizes the lipgloss styles used across kinera's
// terminal output.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Dark palette (Kanagawa-inspired).
const (
	darkGreen     = "#98BB6C"
	darkYellow    = "#FF9E3B"
	darkRed       = "#FF5D62"
	darkCyan      = "#7E9CD8"
	darkViolet    = "#957FB8"
	darkLightText = "#DCD7BA"
	darkMutedText = "#727169"
	darkBorder    = "#363646"
)

// Light palette.
const (
	lightGreen     = "#4E7C5A"
	lightYellow    = "#A68A64"
	lightRed       = "#C34043"
	lightCyan      = "#5B8BBE"
	lightViolet    = "#674D7A"
	lightLightText = "#2B2F42"
	lightMutedText = "#6C7086"
	lightBorder    = "#B5BDC5"
)

// Theme holds the styles shared by the CLI and the live TUI.
type Theme struct {
	Header  lipgloss.Style
	Title   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Box     lipgloss.Style
	Metric  lipgloss.Style
}

// DefaultTheme is the process-wide theme instance.
var DefaultTheme = NewTheme()

// NewTheme builds a theme matched to the terminal background.
func NewTheme() *Theme {
	dark := termenv.HasDarkBackground()

	pick := func(darkColor, lightColor string) lipgloss.Color {
		if dark {
			return lipgloss.Color(darkColor)
		}
		return lipgloss.Color(lightColor)
	}

	green := pick(darkGreen, lightGreen)
	yellow := pick(darkYellow, lightYellow)
	red := pick(darkRed, lightRed)
	cyan := pick(darkCyan, lightCyan)
	violet := pick(darkViolet, lightViolet)
	text := pick(darkLightText, lightLightText)
	muted := pick(darkMutedText, lightMutedText)
	border := pick(darkBorder, lightBorder)

	return &Theme{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(cyan),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(text),
		Success: lipgloss.NewStyle().Foreground(green),
		Error:   lipgloss.NewStyle().Foreground(red),
		Warning: lipgloss.NewStyle().Foreground(yellow),
		Info:    lipgloss.NewStyle().Foreground(cyan),
		Bold:    lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(muted),
		Accent:  lipgloss.NewStyle().Foreground(violet),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		Metric: lipgloss.NewStyle().Bold(true).Foreground(green),
	}
}

// Status renders text with the style matching a status keyword.
func Status(status, text string) string {
	switch status {
	case "ok", "on", "running":
		return DefaultTheme.Success.Render(text)
	case "error", "failed":
		return DefaultTheme.Error.Render(text)
	case "warn", "degraded":
		return DefaultTheme.Warning.Render(text)
	default:
		return DefaultTheme.Info.Render(text)
	}
}
