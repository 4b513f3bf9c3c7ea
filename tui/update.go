package tui

import (
	"context"
	"errors"
	"fmt"

	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/shortplay/shortplay/history"
	"github.com/shortplay/shortplay/icon"
	"github.com/shortplay/shortplay/internal/ui"
	"github.com/shortplay/shortplay/log"
	"github.com/shortplay/shortplay/session"
	"github.com/shortplay/shortplay/source"
)

type notificationMsg session.Notification

type actionDoneMsg struct {
	action string
	err    error
}

func (b *statefulBubble) Init() tea.Cmd {
	cmds := []tea.Cmd{b.spinnerC.Tick, b.waitForNotification()}
	if b.state == loadingState {
		cmds = append(cmds, b.bootstrap(b.titleID, b.options.StartIndex))
	}
	return tea.Batch(cmds...)
}

func (b *statefulBubble) waitForNotification() tea.Cmd {
	return func() tea.Msg {
		return notificationMsg(<-b.notifications)
	}
}

// do runs a controller operation off the update loop.
func (b *statefulBubble) do(action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(context.Background())}
	}
}

func (b *statefulBubble) bootstrap(titleID string, start int) tea.Cmd {
	b.titleID = titleID
	return b.do("load", func(ctx context.Context) error {
		if err := b.controller.Bootstrap(ctx, titleID); err != nil {
			return err
		}
		if start > 0 {
			// the fast fetch may not reach the episode yet
			if start >= len(b.controller.Snapshot().Episodes) {
				if err := b.controller.Settle(ctx); err != nil {
					return err
				}
			}
			return b.controller.SwitchEpisode(ctx, start)
		}
		return nil
	})
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if uiCmd := b.notifier.Update(msg); uiCmd != nil {
		cmd = uiCmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case spinner.TickMsg:
		var tick tea.Cmd
		b.spinnerC, tick = b.spinnerC.Update(msg)
		return b, tea.Batch(cmd, tick)
	case notificationMsg:
		return b, tea.Batch(cmd, b.onNotification(session.Notification(msg)), b.waitForNotification())
	case actionDoneMsg:
		return b, tea.Batch(cmd, b.onActionDone(msg))
	case tea.KeyMsg:
		switch {
		case bubblesKey.Matches(msg, b.keymap.forceQuit):
			return b, tea.Quit
		case bubblesKey.Matches(msg, b.keymap.showHelp) && b.state != episodesState && b.state != historyState:
			b.helpC.ShowAll = !b.helpC.ShowAll
			return b, cmd
		}
	}

	var next tea.Cmd
	switch b.state {
	case historyState:
		next = b.updateHistory(msg)
	case loadingState:
		next = b.updateLoading(msg)
	case playingState:
		next = b.updatePlaying(msg)
	case episodesState:
		next = b.updateEpisodes(msg)
	case finishedState:
		next = b.updateFinished(msg)
	case errorState:
		next = b.updateError(msg)
	}

	return b, tea.Batch(cmd, next)
}

func (b *statefulBubble) onNotification(n session.Notification) tea.Cmd {
	b.snapshot = n.Snapshot
	cmd := b.refreshEpisodes()

	switch n.Kind {
	case session.EpisodeChanged:
		b.saveProgress()
		if b.state == finishedState {
			b.setState(playingState)
		}
		if e, ok := b.snapshot.Current(); ok {
			cmd = tea.Batch(cmd, ui.Notify(fmt.Sprintf("%s Playing %s", icon.Get(icon.Play), e)))
		}
	case session.EpisodesUpdated:
		info := b.snapshot.Info()
		cmd = tea.Batch(cmd, ui.Notify(fmt.Sprintf("%s %d episodes available", icon.Get(icon.Episode), info.Total)))
	case session.AllEpisodesComplete:
		b.setState(finishedState)
		return cmd
	case session.PlayerClosed:
		return tea.Quit
	}

	b.syncState()
	return cmd
}

// syncState moves the view to follow the session, leaving overlays the user opened alone
// unless the session failed.
func (b *statefulBubble) syncState() {
	switch b.snapshot.State {
	case session.Failed:
		b.setState(errorState)
	case session.Bootstrapping:
		b.setState(loadingState)
	case session.Ready, session.Switching, session.AwaitingAdvance:
		if b.state == loadingState || b.state == errorState {
			b.setState(playingState)
		}
	}
}

func (b *statefulBubble) onActionDone(msg actionDoneMsg) tea.Cmd {
	var serr *session.Error

	switch {
	case msg.err == nil,
		errors.Is(msg.err, session.ErrSuperseded),
		errors.Is(msg.err, session.ErrDisposed):
		return nil
	case errors.As(msg.err, &serr):
		// already part of the snapshot
		log.Debugf("%s: %v", msg.action, msg.err)
		return nil
	case errors.Is(msg.err, session.ErrIndexOutOfRange):
		return ui.Notify(fmt.Sprintf("%s No such episode", icon.Get(icon.Fail)))
	case errors.Is(msg.err, session.ErrBusy):
		return ui.Notify(fmt.Sprintf("%s Still loading", icon.Get(icon.Progress)))
	default:
		log.Warnf("%s: %v", msg.action, msg.err)
		return ui.Notify(fmt.Sprintf("%s %v", icon.Get(icon.Fail), msg.err))
	}
}

func (b *statefulBubble) saveProgress() {
	if !b.options.SaveHistory {
		return
	}

	e, ok := b.snapshot.Current()
	if !ok {
		return
	}

	err := history.Save(history.Record{
		TitleID:       b.snapshot.TitleID,
		DisplayTitle:  b.snapshot.DisplayTitle,
		EpisodeNumber: e.Number,
		EpisodeIndex:  b.snapshot.CurrentIndex,
		EpisodesTotal: len(b.snapshot.Episodes),
	})
	if err != nil {
		log.Warnf("save history: %v", err)
	}
}

func (b *statefulBubble) loadHistory() error {
	records, err := history.Recent()
	if err != nil {
		return err
	}

	items := lo.Map(records, func(r *history.Record, i int) list.Item {
		return &listItem{internal: r, index: i}
	})
	b.historyC.SetItems(items)
	return nil
}

func (b *statefulBubble) refreshEpisodes() tea.Cmd {
	items := lo.Map(b.snapshot.Episodes, func(e source.Episode, i int) list.Item {
		return &listItem{internal: e, index: i, current: i == b.snapshot.CurrentIndex}
	})
	return b.episodesC.SetItems(items)
}

func (b *statefulBubble) updateHistory(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && b.historyC.FilterState() != list.Filtering {
		switch {
		case bubblesKey.Matches(msg, b.keymap.confirm):
			item, ok := b.historyC.SelectedItem().(*listItem)
			if !ok {
				return nil
			}
			record := item.internal.(*history.Record)
			b.setState(loadingState)
			return b.bootstrap(record.TitleID, record.EpisodeIndex)
		case bubblesKey.Matches(msg, b.keymap.remove):
			item, ok := b.historyC.SelectedItem().(*listItem)
			if !ok {
				return nil
			}
			if err := history.Remove(item.internal.(*history.Record).TitleID); err != nil {
				return ui.Notify(err.Error())
			}
			if err := b.loadHistory(); err != nil {
				return ui.Notify(err.Error())
			}
			return nil
		}
	}

	var cmd tea.Cmd
	b.historyC, cmd = b.historyC.Update(msg)
	return cmd
}

func (b *statefulBubble) updateLoading(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && bubblesKey.Matches(msg, b.keymap.quit) {
		return tea.Quit
	}
	return nil
}

func (b *statefulBubble) updatePlaying(msg tea.Msg) tea.Cmd {
	msgKey, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	awaiting := b.snapshot.State == session.AwaitingAdvance

	switch {
	case bubblesKey.Matches(msgKey, b.keymap.quit):
		return tea.Quit
	case awaiting && bubblesKey.Matches(msgKey, b.keymap.playNow):
		return b.do("advance", b.controller.AdvanceNow)
	case awaiting && bubblesKey.Matches(msgKey, b.keymap.cancelAdvance):
		return b.do("cancel", func(context.Context) error { return b.controller.CancelAdvance() })
	case bubblesKey.Matches(msgKey, b.keymap.nextEp):
		return b.do("next", b.controller.Next)
	case bubblesKey.Matches(msgKey, b.keymap.prevEp):
		return b.do("previous", b.controller.Previous)
	case bubblesKey.Matches(msgKey, b.keymap.retry):
		return b.retry()
	case bubblesKey.Matches(msgKey, b.keymap.episodes):
		return b.openEpisodes()
	}
	return nil
}

func (b *statefulBubble) updateEpisodes(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && b.episodesC.FilterState() != list.Filtering {
		switch {
		case bubblesKey.Matches(msg, b.keymap.back):
			if b.episodesC.FilterState() != list.Unfiltered {
				break
			}
			b.setState(playingState)
			return nil
		case bubblesKey.Matches(msg, b.keymap.confirm):
			item, ok := b.episodesC.SelectedItem().(*listItem)
			if !ok {
				return nil
			}
			b.setState(playingState)
			return b.do("switch", func(ctx context.Context) error {
				return b.controller.SwitchEpisode(ctx, item.index)
			})
		}
	}

	var cmd tea.Cmd
	b.episodesC, cmd = b.episodesC.Update(msg)
	return cmd
}

func (b *statefulBubble) updateFinished(msg tea.Msg) tea.Cmd {
	msgKey, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch {
	case bubblesKey.Matches(msgKey, b.keymap.quit):
		return tea.Quit
	case bubblesKey.Matches(msgKey, b.keymap.prevEp):
		return b.do("previous", b.controller.Previous)
	case bubblesKey.Matches(msgKey, b.keymap.episodes):
		return b.openEpisodes()
	}
	return nil
}

func (b *statefulBubble) updateError(msg tea.Msg) tea.Cmd {
	msgKey, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch {
	case bubblesKey.Matches(msgKey, b.keymap.quit):
		return tea.Quit
	case bubblesKey.Matches(msgKey, b.keymap.retry):
		return b.retry()
	case bubblesKey.Matches(msgKey, b.keymap.reload):
		b.setState(loadingState)
		return b.bootstrap(b.titleID, 0)
	}
	return nil
}

func (b *statefulBubble) retry() tea.Cmd {
	if !b.snapshot.CanRetry() {
		if b.snapshot.LastError != nil && b.snapshot.RetriesLeft() == 0 {
			return ui.Notify(fmt.Sprintf("%s No retries left, press R to reload", icon.Get(icon.Fail)))
		}
		return ui.Notify("Nothing to retry")
	}
	return b.do("retry", b.controller.Retry)
}

func (b *statefulBubble) openEpisodes() tea.Cmd {
	cmd := b.refreshEpisodes()
	b.episodesC.Select(b.snapshot.CurrentIndex)
	b.setState(episodesState)
	return cmd
}
