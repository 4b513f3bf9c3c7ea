package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/shortplay/shortplay/internal/ui"
	"github.com/shortplay/shortplay/session"
	"github.com/shortplay/shortplay/style"
	"github.com/shortplay/shortplay/util"
)

// statefulBubble is the playback screen. Its view state follows the session snapshot except
// for the episode list, which the user opens on top of playback.
type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	spinnerC  spinner.Model
	helpC     help.Model
	episodesC list.Model
	historyC  list.Model

	controller    *session.Controller
	snapshot      session.Snapshot
	notifications chan session.Notification

	titleID       string
	width, height int
	notifier      *ui.Model
	options       *Options
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	b.episodesC.SetSize(width-xx, height-yy)
	b.episodesC.Help.Width = width - xx
	b.historyC.SetSize(width-xx, height-yy)
	b.historyC.Help.Width = width - xx

	b.width = width - x
	b.height = height - y
	b.helpC.Width = width - xx
}

func newBubble(controller *session.Controller, options *Options) *statefulBubble {
	keymap := newStatefulKeymap()
	bubble := &statefulBubble{
		keymap:        keymap,
		controller:    controller,
		snapshot:      controller.Snapshot(),
		notifications: make(chan session.Notification, 64),
		titleID:       options.TitleID,
		notifier:      &ui.Model{},
		options:       options,
	}

	makeList := func(title string, background lipgloss.Color) list.Model {
		delegate := list.NewDefaultDelegate()
		delegate.Styles.SelectedTitle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(style.AccentColor).
			Foreground(style.AccentColor).
			Padding(0, 0, 0, 1)
		delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(lipgloss.Color("7"))
		delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

		listC := list.New([]list.Item{}, delegate, 0, 0)
		listC.KeyMap = keymap.forList()
		listC.AdditionalShortHelpKeys = keymap.ShortHelp
		listC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
			return keymap.FullHelp()[0]
		}
		listC.Title = title
		listC.Styles.Title = lipgloss.NewStyle().Foreground(style.Base).Background(background).Padding(0, 1)
		listC.Styles.NoItems = paddingStyle
		listC.StatusMessageLifetime = time.Hour * 999
		listC.SetShowPagination(false)
		return listC
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	bubble.episodesC = makeList("Episodes", style.EpisodesListColor)
	bubble.episodesC.SetStatusBarItemName("episode", "episodes")

	bubble.historyC = makeList("Continue Watching", style.HistoryListColor)
	bubble.historyC.SetStatusBarItemName("title", "titles")

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	controller.Subscribe(bubble.forward)
	return bubble
}

// forward hands a notification to the update loop without blocking the controller.
// When the buffer is full the oldest notification is dropped; every one carries a full
// snapshot so only intermediate states are lost.
func (b *statefulBubble) forward(n session.Notification) {
	for {
		select {
		case b.notifications <- n:
			return
		default:
		}

		select {
		case <-b.notifications:
		default:
		}
	}
}
