// Package style provides a functional API for composing and applying lipgloss-based TUI styles.
package style

import "github.com/charmbracelet/lipgloss"

// Interface palette, dark background.
var (
	Base = lipgloss.Color("#1e1e2e")
	Text = lipgloss.Color("#cdd6f4")

	AccentColor = lipgloss.Color("#cba6f7")
	ErrorColor  = lipgloss.Color("#f38ba8")
)

// Title backgrounds of the picker lists.
var (
	EpisodesColor  = lipgloss.Color("#fab387")
	QualityColor   = lipgloss.Color("#89b4fa")
	SubtitlesColor = AccentColor
)
