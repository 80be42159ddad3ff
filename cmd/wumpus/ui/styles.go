// Package ui provides the interactive Wumpus World board.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Light Mode Colors
	LightForeground = lipgloss.Color("#101F38") // Dark Blue
	LightPrimary    = lipgloss.Color("#101F38")
	LightMuted      = lipgloss.Color("#6b7280")
	LightBorder     = lipgloss.Color("#dce0e5")

	// Dark Mode Colors
	DarkForeground = lipgloss.Color("#f2f2f2")
	DarkPrimary    = lipgloss.Color("#8BC34A") // Lime Green
	DarkMuted      = lipgloss.Color("#7d8ba1")
	DarkBorder     = lipgloss.Color("#2a3850")

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e53935") // Red
	Success     = lipgloss.Color("#8BC34A") // Lime Green
	Warning     = lipgloss.Color("#FFC107") // Yellow
	Info        = lipgloss.Color("#2196F3") // Blue
	Gold        = lipgloss.Color("#ffd54f")
)

// Theme holds the current color scheme
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Muted:      LightMuted,
		Border:     LightBorder,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// ThemeByName maps the ui.theme config value to a theme. Unknown names mean dark.
func ThemeByName(name string) Theme {
	if strings.EqualFold(name, "light") {
		return LightTheme()
	}
	return DarkTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	Header lipgloss.Style
	Muted  lipgloss.Style
	Bold   lipgloss.Style
	Panel  lipgloss.Style
	Log    lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Board glyphs
	Agent   lipgloss.Style
	Pit     lipgloss.Style
	Wumpus  lipgloss.Style
	Dead    lipgloss.Style
	Gold    lipgloss.Style
	Visited lipgloss.Style
	Unknown lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	header := lipgloss.NewStyle().
		Background(theme.Primary).
		Foreground(lipgloss.Color("#ffffff")).
		Padding(0, 2).
		Bold(true)
	if theme.IsDark {
		header = header.Foreground(lipgloss.Color("#101F38"))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	return Styles{
		Theme:  theme,
		Header: header,
		Muted:  lipgloss.NewStyle().Foreground(theme.Muted),
		Bold:   lipgloss.NewStyle().Foreground(theme.Foreground).Bold(true),
		Panel:  panel,
		Log:    panel,

		Success: lipgloss.NewStyle().Foreground(Success).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(Destructive).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(Warning),
		Info:    lipgloss.NewStyle().Foreground(Info),

		Agent:   lipgloss.NewStyle().Foreground(Info).Bold(true),
		Pit:     lipgloss.NewStyle().Foreground(theme.Muted).Bold(true),
		Wumpus:  lipgloss.NewStyle().Foreground(Destructive).Bold(true),
		Dead:    lipgloss.NewStyle().Foreground(theme.Muted),
		Gold:    lipgloss.NewStyle().Foreground(Gold).Bold(true),
		Visited: lipgloss.NewStyle().Foreground(Success),
		Unknown: lipgloss.NewStyle().Foreground(theme.Muted),
	}
}

// glyph colors one board cell glyph.
func (s Styles) glyph(r rune) string {
	g := string(r)
	switch r {
	case 'A':
		return s.Agent.Render(g)
	case 'P':
		return s.Pit.Render(g)
	case 'W':
		return s.Wumpus.Render(g)
	case 'x':
		return s.Dead.Render(g)
	case 'G':
		return s.Gold.Render(g)
	case '+':
		return s.Visited.Render(g)
	case '.':
		return s.Unknown.Render(g)
	}
	return g
}

// outcome styles an outcome badge.
func (s Styles) outcome(name string) string {
	switch name {
	case "victory":
		return s.Success.Render(strings.ToUpper(name))
	case "died":
		return s.Error.Render(strings.ToUpper(name))
	case "alive":
		return s.Info.Render("EXPLORING")
	}
	return s.Warning.Render(strings.ToUpper(name))
}
