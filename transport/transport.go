// Package transport implements the user-facing playback commands on top of the controller.
// Commands that change a persisted preference apply it to the surface first and then
// write it through to the preference store.
package transport

import (
	"math"
	"sync"

	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/playback"
	"github.com/anisan-cli/anistream/player"
	"github.com/anisan-cli/anistream/prefs"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/subtitle"
	"github.com/anisan-cli/anistream/util"
	"github.com/samber/mo"
)

// Direction selects the neighbouring episode.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Previous:
		return "previous"
	case Next:
		return "next"
	}
	return "none"
}

// OutroLead is the margin SkipOutro adds past the outro end and keeps before the end of stream.
const OutroLead = 5.0

// Deps are the collaborators of a Transport. Subtitles may be nil.
type Deps struct {
	Controller *playback.Controller
	Surface    player.Surface
	Subtitles  *subtitle.Pipeline
}

// Transport is safe for concurrent use. Invalid commands are no-ops, not errors.
type Transport struct {
	ctrl      *playback.Controller
	surface   player.Surface
	subtitles *subtitle.Pipeline

	mu         sync.Mutex
	adjacency  source.Adjacency
	fullscreen bool
}

func New(deps Deps) *Transport {
	return &Transport{
		ctrl:      deps.Controller,
		surface:   deps.Surface,
		subtitles: deps.Subtitles,
	}
}

// SetDescriptor starts a new episode.
func (t *Transport) SetDescriptor(desc *source.StreamDescriptor) {
	t.ctrl.LoadEpisode(desc)
}

// SetAdjacency replaces the episode navigation supplied by the host.
func (t *Transport) SetAdjacency(a source.Adjacency) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.adjacency = a
}

// Adjacency returns the current episode navigation.
func (t *Transport) Adjacency() source.Adjacency {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.adjacency
}

func (t *Transport) playable() bool {
	switch t.ctrl.State() {
	case playback.Idle, playback.Terminal:
		return false
	}
	return t.ctrl.Active().IsPresent()
}

func (t *Transport) stamp() playback.Stamp {
	return playback.Stamp{Gen: t.ctrl.Generation()}
}

// TogglePlay pauses a playing source and resumes a paused one.
func (t *Transport) TogglePlay() error {
	if !t.playable() {
		return nil
	}

	playing := t.ctrl.Snapshot().Playing
	if err := t.surface.SetPaused(playing); err != nil {
		return err
	}
	t.ctrl.Dispatch(playback.PlayState{Stamp: t.stamp(), Playing: !playing})
	return nil
}

// SeekTo moves to seconds, clamped to [0, duration]. While the duration is
// unknown only the lower bound applies.
func (t *Transport) SeekTo(seconds float64) error {
	if !t.playable() || math.IsNaN(seconds) {
		return nil
	}

	target := math.Max(seconds, 0)
	if duration := t.ctrl.Snapshot().Duration; duration > 0 {
		target = math.Min(target, duration)
	}
	if err := t.surface.Seek(target); err != nil {
		return err
	}
	t.ctrl.Dispatch(playback.TimeUpdate{Stamp: t.stamp(), Position: target})
	return nil
}

// Playing reports whether the surface is playing.
func (t *Transport) Playing() bool {
	return t.ctrl.Snapshot().Playing
}

// Retry reloads the selected source after a terminal error.
func (t *Transport) Retry() {
	t.ctrl.Retry()
}

// Skip seeks relative to the current position.
func (t *Transport) Skip(delta float64) error {
	return t.SeekTo(t.ctrl.Snapshot().CurrentTime + delta)
}

// SetVolume sets the level, clamped to [0, 1].
func (t *Transport) SetVolume(level float64) error {
	if math.IsNaN(level) {
		return nil
	}

	level = util.Clamp(level, 0, 1)
	if err := t.surface.SetVolume(level); err != nil {
		return err
	}
	t.ctrl.UpdatePreferences(func(p *prefs.PlayerPreferences) {
		p.Volume = level
	})
	return nil
}

// Volume returns the persisted volume.
func (t *Transport) Volume() float64 {
	return t.ctrl.Preferences().Volume
}

// ToggleMute flips the mute flag.
func (t *Transport) ToggleMute() error {
	muted := !t.ctrl.Preferences().Muted
	if err := t.surface.SetMuted(muted); err != nil {
		return err
	}
	t.ctrl.UpdatePreferences(func(p *prefs.PlayerPreferences) {
		p.Muted = muted
	})
	return nil
}

// SetPlaybackRate changes the speed. Rates outside (0, prefs.MaxPlaybackRate] are ignored.
func (t *Transport) SetPlaybackRate(rate float64) error {
	if !(rate > 0 && rate <= prefs.MaxPlaybackRate) {
		return nil
	}
	if err := t.surface.SetSpeed(rate); err != nil {
		return err
	}
	t.ctrl.UpdatePreferences(func(p *prefs.PlayerPreferences) {
		p.PlaybackRate = rate
	})
	return nil
}

// ToggleFullscreen flips the surface between windowed and fullscreen.
func (t *Transport) ToggleFullscreen() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.surface.SetFullscreen(!t.fullscreen); err != nil {
		return err
	}
	t.fullscreen = !t.fullscreen
	return nil
}

// Fullscreen reports the last applied fullscreen state.
func (t *Transport) Fullscreen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fullscreen
}

func (t *Transport) skipRange(pick func(*source.StreamDescriptor) mo.Option[source.Range]) (source.Range, bool) {
	desc := t.ctrl.Descriptor()
	if desc == nil || !t.playable() {
		return source.Range{}, false
	}
	r, ok := pick(desc).Get()
	if !ok || !r.Valid() || !r.Contains(t.ctrl.Snapshot().CurrentTime) {
		return source.Range{}, false
	}
	return r, true
}

func intro(d *source.StreamDescriptor) mo.Option[source.Range] { return d.Intro }
func outro(d *source.StreamDescriptor) mo.Option[source.Range] { return d.Outro }

// CanSkipIntro reports whether the position is inside the intro range.
func (t *Transport) CanSkipIntro() bool {
	_, ok := t.skipRange(intro)
	return ok
}

// CanSkipOutro reports whether the position is inside the outro range.
func (t *Transport) CanSkipOutro() bool {
	_, ok := t.skipRange(outro)
	return ok
}

// SkipIntro jumps to the end of the intro. It reports whether it did.
func (t *Transport) SkipIntro() (bool, error) {
	r, ok := t.skipRange(intro)
	if !ok {
		return false, nil
	}
	return true, t.SeekTo(r.End)
}

// SkipOutro jumps OutroLead seconds past the outro, but no closer than OutroLead to the end.
func (t *Transport) SkipOutro() (bool, error) {
	r, ok := t.skipRange(outro)
	if !ok {
		return false, nil
	}

	target := r.End + OutroLead
	if duration := t.ctrl.Snapshot().Duration; duration > 0 {
		target = math.Min(target, duration-OutroLead)
	}
	return true, t.SeekTo(target)
}

// CanChangeEpisode reports whether a neighbour exists in direction d.
func (t *Transport) CanChangeEpisode(d Direction) bool {
	a := t.Adjacency()
	switch d {
	case Next:
		return a.HasNext && a.OnNext != nil
	case Previous:
		return a.HasPrevious && a.OnPrevious != nil
	}
	return false
}

// ChangeEpisode asks the host to open the neighbour in direction d. There is no wrap-around.
func (t *Transport) ChangeEpisode(d Direction) bool {
	if !t.CanChangeEpisode(d) {
		log.Debugf("transport: no %s episode", d)
		return false
	}

	a := t.Adjacency()
	if d == Next {
		a.OnNext()
	} else {
		a.OnPrevious()
	}
	return true
}

// SetQuality selects a level, hls.AutoLevel for automatic, and persists it.
func (t *Transport) SetQuality(level int) error {
	if err := t.ctrl.SetQuality(level); err != nil {
		return err
	}
	t.ctrl.UpdatePreferences(func(p *prefs.PlayerPreferences) {
		p.Quality = level
	})
	return nil
}

// SelectSubtitle activates track index, -1 for off, and persists its label.
func (t *Transport) SelectSubtitle(index int) error {
	if err := t.ctrl.SelectSubtitle(index); err != nil {
		return err
	}

	label := prefs.SubtitleOff
	if desc := t.ctrl.Descriptor(); desc != nil && index >= 0 && index < len(desc.Subtitles) {
		label = desc.Subtitles[index].Label
	}
	t.ctrl.UpdatePreferences(func(p *prefs.PlayerPreferences) {
		p.SubtitleLang = label
	})
	return nil
}

// UpdateSubtitleStyle edits the subtitle style. Out-of-range values are clamped and
// invalid colors keep their previous value.
func (t *Transport) UpdateSubtitleStyle(mutate func(*prefs.Style)) error {
	current := t.ctrl.Preferences().SubtitleStyle
	next := current
	mutate(&next)

	next.FontSize = util.Clamp(next.FontSize, prefs.MinFontSize, prefs.MaxFontSize)
	next.BackgroundOpacity = util.Clamp(next.BackgroundOpacity, 0, 1)
	next.VerticalPosition = util.Clamp(next.VerticalPosition, prefs.MinVerticalPosition, prefs.MaxVerticalPosition)
	if !prefs.ValidColor(next.TextColor) {
		next.TextColor = current.TextColor
	}
	if !prefs.ValidColor(next.BackgroundColor) {
		next.BackgroundColor = current.BackgroundColor
	}

	if t.subtitles != nil {
		if err := t.subtitles.ApplyStyle(next); err != nil {
			return err
		}
	} else if err := t.surface.ApplySubtitleStyle(subtitle.Render(next)); err != nil {
		return err
	}

	t.ctrl.UpdatePreferences(func(p *prefs.PlayerPreferences) {
		p.SubtitleStyle = next
	})
	return nil
}
