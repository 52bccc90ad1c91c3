// Package ui is the interactive terminal front end of the travel client.
// Pages follow the router: login and register for guests, the marker
// listing and add-place form for admins, trip search and results for
// everyone else.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Status colors do not change with the theme.
var (
	colorDanger  = lipgloss.Color("#e53935")
	colorOK      = lipgloss.Color("#43a047")
	colorCaution = lipgloss.Color("#ffb300")
	colorNotice  = lipgloss.Color("#1e88e5")
	colorOnFill  = lipgloss.Color("#ffffff")
)

// Theme is a palette. Primary is the teal used for titles and the map,
// Accent the sunset orange used for focus.
type Theme struct {
	Background, Foreground lipgloss.Color
	Primary, Accent        lipgloss.Color
	Muted, Border, Card    lipgloss.Color
	IsDark                 bool
}

// LightTheme is sand and slate.
func LightTheme() Theme {
	return Theme{
		Background: "#fbf8f3",
		Foreground: "#1d2b36",
		Primary:    "#0f6e74",
		Accent:     "#e0803c",
		Muted:      "#8a949c",
		Border:     "#d9d3c7",
		Card:       "#ffffff",
	}
}

func DarkTheme() Theme {
	return Theme{
		Background: "#121b22",
		Foreground: "#eef1f3",
		Primary:    "#4fc1c6",
		Accent:     "#f2a365",
		Muted:      "#5d6b75",
		Border:     "#2b3a45",
		Card:       "#1a2630",
		IsDark:     true,
	}
}

// DetectTheme picks dark mode when forced, when TRAVEL_DARK_MODE is truthy,
// or when COLORFGBG reports a dark background.
func DetectTheme(forceDark bool) Theme {
	if forceDark {
		return DarkTheme()
	}
	if v, err := strconv.ParseBool(os.Getenv("TRAVEL_DARK_MODE")); err == nil && v {
		return DarkTheme()
	}

	// Format is usually "foreground;background"
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil && ((bg >= 0 && bg <= 6) || bg == 8) {
			return DarkTheme()
		}
	}
	return LightTheme()
}

// Styles is every lipgloss style the pages draw with, derived from one Theme.
type Styles struct {
	Theme Theme

	Header, Footer, Content                  lipgloss.Style
	Title, Subtitle, Body, Muted, Bold       lipgloss.Style
	Label, FocusedLabel, Input, FocusedInput lipgloss.Style
	Success, Error, Warning, Info            lipgloss.Style
	Map, Spinner, Divider, Badge             lipgloss.Style
}

func NewStyles(theme Theme) Styles {
	input := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(colorOnFill).
			Padding(0, 2).
			Bold(true),
		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),
		Content: lipgloss.NewStyle().
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),
		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),
		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),
		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(theme.Muted),
		FocusedLabel: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),
		Input:        input,
		FocusedInput: input.BorderForeground(theme.Primary),

		Success: lipgloss.NewStyle().
			Foreground(colorOK).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(colorCaution).
			Bold(true),
		Info: lipgloss.NewStyle().
			Foreground(colorNotice),

		Map: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Background(theme.Card).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),
		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),
		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(colorOnFill).
			Padding(0, 1).
			Bold(true),
	}
}

// DefaultStyles returns styles for the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme(false))
}

func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Divider.Render(strings.Repeat("─", width))
}

// GlamourStyle names the glamour markdown style matching the theme.
func (t Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}
