package tui

import (
	"github.com/anisan-cli/anistream/clock"
	"github.com/anisan-cli/anistream/input"
	"github.com/anisan-cli/anistream/playback"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/style"
	"github.com/anisan-cli/anistream/util"
	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/mo"
)

// statefulBubble is the host model. Playback state arrives as controller snapshots;
// every transport command goes through the input router or the transport directly.
type statefulBubble struct {
	state         state
	statesHistory history
	loading       bool

	keymap *statefulKeymap
	router *input.Router

	spinnerC  spinner.Model
	episodesC list.Model
	qualityC  list.Model
	subtitleC list.Model
	progressC progress.Model
	helpC     help.Model

	episodes []source.Episode
	current  mo.Option[source.Episode]
	// queued is set by the adjacency callbacks while the router handles a key.
	queued mo.Option[source.Episode]

	snapshot    playback.Snapshot
	unsubscribe func()

	snapshotChannel chan playback.Snapshot
	controlsChannel chan bool

	touch mo.Option[touchPoint]

	progressStatus string
	lastError      error

	width, height int

	options *Options
}

type touchPoint struct {
	x, y int
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.stopLoading()
	b.newState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// newState transitions to s, recording the previous state unless it was transient.
func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}

	b.statesHistory.push(b.state)
	b.setState(s)
}

func (b *statefulBubble) previousState() {
	if previous, ok := b.statesHistory.pop(); ok {
		b.setState(previous)
	}
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	listHeight := height - yy

	for _, l := range []*list.Model{&b.episodesC, &b.qualityC, &b.subtitleC} {
		l.SetSize(listWidth, listHeight)
		l.Help.Width = listWidth
	}

	b.progressC.Width = listWidth - 20
	b.helpC.Width = listWidth

	b.width = width - x
	b.height = height - y
}

func (b *statefulBubble) startLoading(status string) {
	b.loading = true
	b.progressStatus = status
	b.newState(loadingState)
}

func (b *statefulBubble) stopLoading() {
	b.loading = false
	b.progressStatus = ""
}

// onSnapshot keeps only the latest snapshot; it runs on the controller's turn and must not block.
func (b *statefulBubble) onSnapshot(s playback.Snapshot) {
	for {
		select {
		case b.snapshotChannel <- s:
			return
		default:
		}
		select {
		case <-b.snapshotChannel:
		default:
		}
	}
}

func (b *statefulBubble) onControls(visible bool) {
	select {
	case b.controlsChannel <- visible:
	default:
	}
}

func (b *statefulBubble) close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	b.router.Close()
}

func newBubble(options *Options) *statefulBubble {
	keymap := newStatefulKeymap(input.DefaultKeyMap())
	bubble := statefulBubble{
		keymap:          keymap,
		snapshotChannel: make(chan playback.Snapshot, 1),
		controlsChannel: make(chan bool, 1),
		options:         options,
	}

	bubble.router = input.NewRouter(
		options.Transport,
		clock.Real(),
		input.DetectProfile(),
		input.WithConfig(input.ConfigFromViper()),
		input.WithKeyMap(keymap.player),
		input.WithControlsHandler(bubble.onControls),
	)
	bubble.snapshot = options.Controller.Snapshot()
	bubble.unsubscribe = options.Controller.Subscribe(bubble.onSnapshot)

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
		listC.KeyMap = bubble.keymap.forList()
		listC.AdditionalShortHelpKeys = bubble.keymap.ShortHelp
		listC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
			return bubble.keymap.FullHelp()[0]
		}
		listC.Title = title
		listC.Styles.Title = lipgloss.NewStyle().Foreground(style.Base).Background(background).Padding(0, 1)
		listC.Styles.NoItems = paddingStyle
		listC.SetShowPagination(false)
		listC.SetShowStatusBar(false)
		listC.SetFilteringEnabled(false)
		return listC
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	bubble.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	bubble.episodesC = makeList(options.Provider.Name(), style.EpisodesColor)
	bubble.episodesC.SetStatusBarItemName("episode", "episodes")

	bubble.qualityC = makeList("Quality", style.QualityColor)
	bubble.subtitleC = makeList("Subtitles", style.SubtitlesColor)

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	return &bubble
}
