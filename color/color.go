// Package color names the ANSI colors used by command output.
package color

import "github.com/charmbracelet/lipgloss"

// New wraps an ANSI index or hex value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// Terminal colors, so output follows the user's theme.
var (
	Red    = New("1")
	Green  = New("2")
	Yellow = New("3")
	Blue   = New("4")
	Purple = New("5")
	Cyan   = New("6")

	HiRed    = New("9")
	HiPurple = New("13")
)

// Orange highlights countdowns and config keys. It is fixed since no ANSI index is orange.
var Orange = New("#ffb703")
