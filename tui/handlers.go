package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/playback"
	"github.com/anisan-cli/anistream/prefs"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/util"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

const providerTimeout = 30 * time.Second

type (
	episodesMsg   []source.Episode
	snapshotMsg   playback.Snapshot
	controlsMsg   bool
	surfaceExited struct{}
	descriptorMsg struct {
		episode source.Episode
		desc    *source.StreamDescriptor
	}
)

func (b *statefulBubble) loadEpisodes() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
		defer cancel()

		episodes, err := b.options.Provider.Episodes(ctx)
		if err != nil {
			return fmt.Errorf("list episodes: %w", err)
		}
		if len(episodes) == 0 {
			return fmt.Errorf("%s offers no episodes", b.options.Provider.Name())
		}
		return episodesMsg(episodes)
	}
}

func (b *statefulBubble) describe(episode source.Episode) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
		defer cancel()

		desc, err := b.options.Provider.Describe(ctx, episode)
		if err != nil {
			return fmt.Errorf("describe %s: %w", episode, err)
		}
		return descriptorMsg{episode: episode, desc: desc}
	}
}

func (b *statefulBubble) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-b.snapshotChannel)
	}
}

func (b *statefulBubble) waitForControls() tea.Cmd {
	return func() tea.Msg {
		return controlsMsg(<-b.controlsChannel)
	}
}

func (b *statefulBubble) waitForExit() tea.Cmd {
	if b.options.Exited == nil {
		return nil
	}
	return func() tea.Msg {
		<-b.options.Exited
		return surfaceExited{}
	}
}

func (b *statefulBubble) setEpisodes(episodes []source.Episode) tea.Cmd {
	b.episodes = episodes
	items := lo.Map(episodes, func(e source.Episode, _ int) list.Item {
		return &listItem{internal: &e}
	})
	return b.episodesC.SetItems(items)
}

// openEpisode fetches the descriptor of episode behind the loading screen.
func (b *statefulBubble) openEpisode(episode source.Episode) tea.Cmd {
	b.startLoading(fmt.Sprintf("Fetching sources for %s", episode))
	return b.describe(episode)
}

// play hands a freshly described episode to the transport, with adjacency from the episode list.
func (b *statefulBubble) play(msg descriptorMsg) {
	b.stopLoading()

	_, index, _ := lo.FindIndexOf(b.episodes, func(e source.Episode) bool {
		return e.ID == msg.episode.ID
	})
	b.options.Transport.SetAdjacency(source.AdjacencyOf(b.episodes, index, func(next source.Episode) {
		b.queued = mo.Some(next)
	}))

	b.current = mo.Some(msg.episode)
	b.options.Controller.SetTitle(msg.episode.String())
	b.options.Transport.SetDescriptor(msg.desc)

	b.statesHistory.resetTo(episodesState)
	b.setState(playerState)
	b.router.Reveal()

	log.Infow("episode opened", log.Fields{
		"episode":   msg.episode.ID,
		"sources":   len(msg.desc.Sources),
		"subtitles": len(msg.desc.Subtitles),
	})
}

// takeQueued returns the command for an episode change requested by the router, if any.
func (b *statefulBubble) takeQueued() tea.Cmd {
	next, ok := b.queued.Get()
	if !ok {
		return nil
	}
	b.queued = mo.None[source.Episode]()

	if _, i, found := lo.FindIndexOf(b.episodes, func(e source.Episode) bool { return e.ID == next.ID }); found {
		b.episodesC.Select(i)
	}
	return b.openEpisode(next)
}

func (b *statefulBubble) showQuality() tea.Cmd {
	levels := b.snapshot.Levels
	if len(levels) == 0 {
		return nil
	}

	items := []list.Item{&listItem{
		internal: &qualityOption{index: hls.AutoLevel},
		marked:   b.snapshot.Quality == hls.AutoLevel,
	}}
	for i, l := range levels {
		items = append(items, &listItem{
			internal: &qualityOption{index: i, level: l},
			marked:   b.snapshot.Quality == i,
		})
	}

	cmd := b.qualityC.SetItems(items)
	b.qualityC.Select(util.Clamp(b.snapshot.Quality+1, 0, len(items)-1))
	b.newState(qualityState)
	return cmd
}

func (b *statefulBubble) showSubtitles() tea.Cmd {
	desc := b.options.Controller.Descriptor()
	if desc == nil || len(desc.Subtitles) == 0 {
		return nil
	}

	items := []list.Item{&listItem{
		internal: &subtitleOption{index: -1},
		marked:   b.snapshot.Subtitle < 0,
	}}
	for i, t := range desc.Subtitles {
		items = append(items, &listItem{
			internal: &subtitleOption{index: i, track: t},
			marked:   b.snapshot.Subtitle == i,
		})
	}

	cmd := b.subtitleC.SetItems(items)
	b.subtitleC.Select(util.Clamp(b.snapshot.Subtitle+1, 0, len(items)-1))
	b.newState(subtitleState)
	return cmd
}

func (b *statefulBubble) adjustStyle(mutate func(*prefs.Style)) {
	if err := b.options.Transport.UpdateSubtitleStyle(mutate); err != nil {
		log.Warnf("subtitle style: %v", err)
	}
}

func (b *statefulBubble) stepRate(delta float64) {
	rate := b.options.Controller.Preferences().PlaybackRate + delta
	if err := b.options.Transport.SetPlaybackRate(rate); err != nil {
		log.Warnf("playback rate: %v", err)
	}
}
