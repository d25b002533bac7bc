package tui

import (
	"math"

	"github.com/anisan-cli/anistream/input"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/playback"
	"github.com/anisan-cli/anistream/prefs"
	"github.com/anisan-cli/anistream/source"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Approximate pixel size of a terminal cell, so drag thresholds keep their meaning.
const (
	cellWidth  = 8
	cellHeight = 16
)

const (
	fontStep     = 2
	positionStep = 5
	rateStep     = 0.25
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case error:
		b.raiseError(msg)
		return b, nil
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case snapshotMsg:
		b.snapshot = playback.Snapshot(msg)
		return b, b.waitForSnapshot()
	case controlsMsg:
		return b, b.waitForControls()
	case surfaceExited:
		log.Info("playback surface exited")
		return b, tea.Quit
	case episodesMsg:
		return b, b.onEpisodes(msg)
	case descriptorMsg:
		b.play(msg)
		return b, nil
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}
	}

	switch b.state {
	case loadingState:
		return b, nil
	case episodesState:
		return b.updateEpisodes(msg)
	case playerState:
		return b.updatePlayer(msg)
	case qualityState:
		return b.updateQuality(msg)
	case subtitleState:
		return b.updateSubtitle(msg)
	case errorState:
		return b.updateError(msg)
	}

	return b, nil
}

func (b *statefulBubble) onEpisodes(episodes []source.Episode) tea.Cmd {
	cmd := b.setEpisodes(episodes)

	if id := b.options.Episode; id != "" {
		if episode, ok := lo.Find(episodes, func(e source.Episode) bool { return e.ID == id }); ok {
			return tea.Batch(cmd, b.openEpisode(episode))
		}
		log.Warnf("episode %q not found, showing the list", id)
	}

	if len(episodes) == 1 {
		return tea.Batch(cmd, b.openEpisode(episodes[0]))
	}

	b.stopLoading()
	b.setState(episodesState)
	return cmd
}

func (b *statefulBubble) updateEpisodes(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(msg, b.keymap.quit):
			return b, tea.Quit
		case bubblesKey.Matches(msg, b.keymap.back):
			if b.current.IsPresent() {
				b.setState(playerState)
			}
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.play):
			item, ok := b.episodesC.SelectedItem().(*listItem)
			if !ok {
				return b, nil
			}
			return b, b.openEpisode(*item.internal.(*source.Episode))
		}
	}

	var cmd tea.Cmd
	b.episodesC, cmd = b.episodesC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updatePlayer(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case bubblesKey.Matches(msg, b.keymap.quit):
			return b, tea.Quit
		case bubblesKey.Matches(msg, b.keymap.showHelp):
			b.helpC.ShowAll = !b.helpC.ShowAll
		case bubblesKey.Matches(msg, b.keymap.quality):
			return b, b.showQuality()
		case bubblesKey.Matches(msg, b.keymap.subtitles):
			return b, b.showSubtitles()
		case bubblesKey.Matches(msg, b.keymap.episodes, b.keymap.back):
			b.newState(episodesState)
		case bubblesKey.Matches(msg, b.keymap.fontUp):
			b.adjustStyle(func(s *prefs.Style) { s.FontSize += fontStep })
		case bubblesKey.Matches(msg, b.keymap.fontDown):
			b.adjustStyle(func(s *prefs.Style) { s.FontSize -= fontStep })
		case bubblesKey.Matches(msg, b.keymap.raise):
			b.adjustStyle(func(s *prefs.Style) { s.VerticalPosition -= positionStep })
		case bubblesKey.Matches(msg, b.keymap.lower):
			b.adjustStyle(func(s *prefs.Style) { s.VerticalPosition += positionStep })
		case bubblesKey.Matches(msg, b.keymap.slower):
			b.stepRate(-rateStep)
		case bubblesKey.Matches(msg, b.keymap.faster):
			b.stepRate(rateStep)
		default:
			if b.router.HandleKey(msg) {
				b.router.Reveal()
			}
		}
	case tea.MouseMsg:
		b.handleMouse(msg)
	}

	return b, b.takeQueued()
}

// handleMouse feeds pointer events to the router: clicks and motion on desktop,
// taps and swipes on mobile.
func (b *statefulBubble) handleMouse(msg tea.MouseMsg) {
	if b.router.Profile() == input.Desktop {
		switch {
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			b.router.Click()
		case msg.Action == tea.MouseActionMotion:
			b.router.Hover()
		}
		return
	}

	x, y := float64(msg.X*cellWidth), float64(msg.Y*cellHeight)
	switch msg.Action {
	case tea.MouseActionPress:
		b.touch = mo.Some(touchPoint{x: msg.X, y: msg.Y})
		b.router.TouchStart(x, y)
	case tea.MouseActionMotion:
		b.router.TouchMove(x, y)
	case tea.MouseActionRelease:
		start, ok := b.touch.Get()
		b.touch = mo.None[touchPoint]()
		b.router.TouchMove(x, y)
		b.router.TouchEnd()
		if ok && math.Abs(float64(msg.X-start.x)) <= 1 && math.Abs(float64(msg.Y-start.y)) <= 1 {
			b.router.Tap()
		}
	}
}

func (b *statefulBubble) updateQuality(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(msg, b.keymap.back):
			b.previousState()
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.confirm):
			if item, ok := b.qualityC.SelectedItem().(*listItem); ok {
				option := item.internal.(*qualityOption)
				if err := b.options.Transport.SetQuality(option.index); err != nil {
					log.Warnf("quality: %v", err)
				}
			}
			b.previousState()
			return b, nil
		}
	}

	var cmd tea.Cmd
	b.qualityC, cmd = b.qualityC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updateSubtitle(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(msg, b.keymap.back):
			b.previousState()
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.confirm):
			if item, ok := b.subtitleC.SelectedItem().(*listItem); ok {
				option := item.internal.(*subtitleOption)
				if err := b.options.Transport.SelectSubtitle(option.index); err != nil {
					log.Warnf("subtitle: %v", err)
				}
			}
			b.previousState()
			return b, nil
		}
	}

	var cmd tea.Cmd
	b.subtitleC, cmd = b.subtitleC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updateError(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(msg, b.keymap.quit):
			return b, tea.Quit
		case bubblesKey.Matches(msg, b.keymap.back):
			if len(b.episodes) == 0 {
				return b, tea.Quit
			}
			b.lastError = nil
			b.previousState()
			if b.state == loadingState || b.state == errorState {
				b.setState(episodesState)
			}
		}
	}
	return b, nil
}
