// Package tui is the interactive playback screen.
package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shortplay/shortplay/log"
	"github.com/shortplay/shortplay/player"
	"github.com/shortplay/shortplay/session"
)

// Options configure a playback screen.
type Options struct {
	// TitleID is played right away. When empty the history list is shown instead.
	TitleID string
	// StartIndex is the episode opened once the title is loaded.
	StartIndex int

	Backend     session.Backend
	Sink        player.Sink
	Session     session.Options
	SaveHistory bool
}

var errNothingToPlay = errors.New("nothing to play: no title given and no history")

// Run shows the playback screen until the user quits.
func Run(options *Options) error {
	controller := session.New(options.Backend, options.Sink, options.Session)
	defer func() {
		if err := controller.Dispose(); err != nil {
			log.Warnf("dispose session: %v", err)
		}
	}()

	bubble := newBubble(controller, options)

	if options.TitleID == "" {
		if err := bubble.loadHistory(); err != nil {
			return err
		}
		if len(bubble.historyC.Items()) == 0 {
			return errNothingToPlay
		}
		bubble.setState(historyState)
	} else {
		bubble.setState(loadingState)
	}

	_, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	return err
}
