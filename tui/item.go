package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shortplay/shortplay/history"
	"github.com/shortplay/shortplay/icon"
	"github.com/shortplay/shortplay/source"
	"github.com/shortplay/shortplay/style"
)

// listItem adapts episodes and history records to list.Item.
type listItem struct {
	internal any
	index    int
	current  bool
}

func (t *listItem) Title() string {
	title := t.FilterValue()
	if t.current {
		title = fmt.Sprintf("%s %s", title, lipgloss.NewStyle().Bold(true).Foreground(style.AccentColor).Render(icon.Get(icon.Mark)))
	}
	return title
}

func (t *listItem) Description() string {
	switch e := t.internal.(type) {
	case source.Episode:
		switch {
		case e.Resolved():
			return style.Fg(style.ReadyColor)("ready")
		case e.Playable():
			return style.Faint("resolved on demand")
		default:
			return style.Fg(style.MissingColor)("unavailable")
		}
	case *history.Record:
		description := fmt.Sprintf("Episode %d / %d", e.EpisodeNumber, e.EpisodesTotal)
		if e.Finished() {
			description += style.Fg(style.WatchedColor)(" (Watched)")
		}
		return description
	default:
		return ""
	}
}

func (t *listItem) FilterValue() string {
	switch e := t.internal.(type) {
	case source.Episode:
		if e.Title != "" {
			return fmt.Sprintf("%d. %s", e.Number, e.Title)
		}
		return e.String()
	case *history.Record:
		if e.DisplayTitle != "" {
			return e.DisplayTitle
		}
		return e.TitleID
	default:
		return ""
	}
}
