// Package style provides a functional API for composing and applying lipgloss-based TUI styles.
package style

import (
	"github.com/anisan-cli/anistream/color"
	"github.com/charmbracelet/lipgloss"
)

// New returns an empty style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Colored returns a style with the given foreground and background. An empty color leaves that side unset.
func Colored(fg, bg lipgloss.Color) lipgloss.Style {
	return New().Foreground(fg).Background(bg)
}

// Fg returns a renderer that paints its input in c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return Colored(c, "").Render(s) }
}

var (
	Faint = func(s string) string { return New().Faint(true).Render(s) }
	Bold  = func(s string) string { return New().Bold(true).Render(s) }
)

// Title renders a banner, as used for list and screen headings.
var Title = func(s string) string {
	return Colored(Base, AccentColor).Bold(true).Padding(0, 1).Render(s)
}

// ErrorTitle renders the banner of a failed playback or command.
var ErrorTitle = func(s string) string {
	return Colored(color.New("230"), ErrorColor).Bold(true).Padding(0, 1).Render(s)
}
