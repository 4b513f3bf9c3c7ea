package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"
	"github.com/shortplay/shortplay/color"
	"github.com/shortplay/shortplay/icon"
	"github.com/shortplay/shortplay/session"
	"github.com/shortplay/shortplay/style"
	"github.com/shortplay/shortplay/util"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case historyState:
		output = listExtraPaddingStyle.Render(b.historyC.View())
	case loadingState:
		output = b.viewLoading()
	case playingState:
		output = b.viewPlaying()
	case episodesState:
		output = listExtraPaddingStyle.Render(b.episodesC.View())
	case finishedState:
		output = b.viewFinished()
	case errorState:
		output = b.viewError()
	default:
		output = "Unknown state"
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			b.spinnerC.View() + " Fetching " + style.Fg(color.Purple)(b.titleID),
		},
	)
}

func (b *statefulBubble) viewPlaying() string {
	s := b.snapshot
	info := s.Info()

	lines := []string{
		style.Title(lo.CoalesceOrEmpty(s.DisplayTitle, s.TitleID)),
		"",
	}

	if e, ok := s.Current(); ok {
		lines = append(lines, style.Truncate(b.width)(fmt.Sprintf(
			"%s %s %s",
			icon.Get(icon.Episode),
			style.Fg(color.Purple)(e.String()),
			style.Faint(fmt.Sprintf("(%d of %d, %s ready)", info.Current, info.Total, util.Quantify(info.Loaded, "episode", "episodes"))),
		)))
	}

	lines = append(lines, "")

	switch {
	case s.State == session.Switching:
		lines = append(lines, b.spinnerC.View()+" Resolving episode")
	case s.Buffering:
		lines = append(lines, b.spinnerC.View()+" Buffering")
	case s.State == session.AwaitingAdvance && s.Advance != nil:
		next := s.Episodes[s.Advance.TargetIndex]
		lines = append(lines, fmt.Sprintf(
			"%s %s in %s",
			icon.Get(icon.Timer),
			style.Bold(next.String()),
			style.Fg(color.Orange)(util.Quantify(s.Advance.CountdownSeconds, "second", "seconds")),
		))
		lines = append(lines, style.Faint("enter to play now, c to stay"))
	default:
		lines = append(lines, icon.Get(icon.Play)+" Playing")
	}

	if s.LastError != nil {
		lines = append(lines, "", b.renderError(s))
	}

	if !s.Complete {
		lines = append(lines, "", style.Faint("Loading more episodes in the background"))
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) viewFinished() string {
	s := b.snapshot
	return b.renderLines(
		true,
		[]string{
			style.Title("Finished"),
			"",
			fmt.Sprintf(
				"%s You watched all %s of %s",
				icon.Get(icon.Success),
				util.Quantify(len(s.Episodes), "episode", "episodes"),
				style.Fg(color.Purple)(lo.CoalesceOrEmpty(s.DisplayTitle, s.TitleID)),
			),
		},
	)
}

func (b *statefulBubble) viewError() string {
	lines := []string{
		style.ErrorTitle("Error"),
		"",
		icon.Get(icon.Fail) + " Could not continue playback:",
		"",
	}

	if b.snapshot.LastError != nil {
		lines = append(lines, b.renderError(b.snapshot))
	}

	return b.renderLines(true, lines)
}

// renderError shows the last error with the recovery the session offers for it.
func (b *statefulBubble) renderError(s session.Snapshot) string {
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	body := errorStyle.Render(s.LastError.Error())
	if b.width > 0 {
		body = wrap.String(body, b.width)
	}

	var hint string
	switch {
	case s.CanRetry():
		hint = fmt.Sprintf("%s press r to retry (%s left)", icon.Get(icon.Retry), util.Quantify(s.RetriesLeft(), "retry", "retries"))
	case s.LastError.Kind == session.EpisodeUnplayable:
		hint = "pick another episode"
	default:
		hint = "press R to reload the title"
	}

	return body + "\n" + style.Faint(hint)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
