package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/shortplay/shortplay/color"
	"github.com/shortplay/shortplay/style"
)

type statefulKeymap struct {
	state state

	quit, forceQuit,
	confirm, back,
	up, down, top, bottom,
	nextEp, prevEp,
	retry, reload,
	playNow, cancelAdvance,
	episodes, remove,
	showHelp key.Binding
}

func (k *statefulKeymap) setState(newState state) {
	k.state = newState
}

func newStatefulKeymap() *statefulKeymap {
	return &statefulKeymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "down"),
		),
		top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "top"),
		),
		bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),
		nextEp: key.NewBinding(
			key.WithKeys("right", "n"),
			key.WithHelp("→", "next episode"),
		),
		prevEp: key.NewBinding(
			key.WithKeys("left", "p"),
			key.WithHelp("←", "previous episode"),
		),
		retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp(style.Fg(color.Orange)("r"), style.Fg(color.Orange)("retry")),
		),
		reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload title"),
		),
		playNow: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp(style.Fg(color.Orange)("enter"), style.Fg(color.Orange)("play now")),
		),
		cancelAdvance: key.NewBinding(
			key.WithKeys("c", "esc"),
			key.WithHelp("c", "cancel"),
		),
		episodes: key.NewBinding(
			key.WithKeys("e", "l"),
			key.WithHelp("e", "episodes"),
		),
		remove: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "remove"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *statefulKeymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	to2 := func(a []key.Binding) ([]key.Binding, []key.Binding) {
		return a, a
	}

	switch k.state {
	case historyState:
		return to2(h(k.confirm, k.remove, k.quit))
	case loadingState:
		return to2(h(k.forceQuit))
	case playingState:
		return h(k.prevEp, k.nextEp, k.episodes, k.showHelp, k.quit),
			h(k.prevEp, k.nextEp, k.episodes, k.retry, k.playNow, k.cancelAdvance, k.showHelp, k.quit)
	case episodesState:
		return to2(h(k.confirm, k.back))
	case finishedState:
		return to2(h(k.prevEp, k.episodes, k.quit))
	case errorState:
		return to2(h(k.retry, k.reload, k.quit))
	default:
		return to2(h())
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return short
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	return [][]key.Binding{full}
}

func (k *statefulKeymap) forList() list.KeyMap {
	return list.KeyMap{
		CursorUp:             k.up,
		CursorDown:           k.down,
		GoToStart:            k.top,
		GoToEnd:              k.bottom,
		ClearFilter:          k.back,
		CancelWhileFiltering: k.back,
		AcceptWhileFiltering: k.confirm,
		ShowFullHelp:         k.showHelp,
		CloseFullHelp:        k.showHelp,
		Quit:                 k.quit,
		ForceQuit:            k.forceQuit,
	}
}
