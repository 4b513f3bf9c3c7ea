// Package style holds the colors and text renderers shared by the TUI and command output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/shortplay/shortplay/color"
)

// New returns an empty style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Fg returns a renderer that paints text in c.
func Fg(c lipgloss.Color) func(string) string {
	fg := New().Foreground(c)
	return func(s string) string { return fg.Render(s) }
}

// Truncate returns a renderer that fits text into width columns.
func Truncate(width int) func(string) string {
	return func(s string) string { return New().Width(width).Render(s) }
}

var (
	Faint = func(s string) string { return New().Faint(true).Render(s) }
	Bold  = func(s string) string { return New().Bold(true).Render(s) }
)

func banner(bg lipgloss.Color) func(string) string {
	b := New().Foreground(color.New("230")).Background(bg).Padding(0, 1)
	return func(s string) string { return b.Render(s) }
}

// Title heads a screen; ErrorTitle heads the error screen.
var (
	Title      = banner(color.New("62"))
	ErrorTitle = banner(color.Red)
)
