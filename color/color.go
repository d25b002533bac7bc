// Package color names the terminal colors used by command output.
package color

import "github.com/charmbracelet/lipgloss"

// New initializes a lipgloss.Color from an ANSI index or a hex value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// ANSI colors, so output follows the terminal theme.
var (
	Red      = New("1")
	Green    = New("2")
	Yellow   = New("3")
	Blue     = New("4")
	Purple   = New("5")
	HiRed    = New("9")
	HiBlue   = New("12")
	HiPurple = New("13")
)

// Orange highlights key hints; the ANSI set has no orange.
var Orange = New("#ffb703")
