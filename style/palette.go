package style

import "github.com/charmbracelet/lipgloss"

// Base tones of the terminal UI.
var (
	Base = lipgloss.Color("#1e1e2e")
	Text = lipgloss.Color("#cdd6f4")
)

var (
	mauve  = lipgloss.Color("#cba6f7")
	red    = lipgloss.Color("#f38ba8")
	peach  = lipgloss.Color("#fab387")
	yellow = lipgloss.Color("#f9e2af")
	green  = lipgloss.Color("#a6e3a1")
)

// Colors by role.
var (
	AccentColor = mauve
	ErrorColor  = red

	// ReadyColor marks an episode that plays without asking the backend.
	ReadyColor = green
	// MissingColor marks an episode with nothing to play.
	MissingColor = red
	// WatchedColor marks a title whose last episode was reached.
	WatchedColor = green

	EpisodesListColor = peach
	HistoryListColor  = yellow
)
