// Package player defines the playback surface the engine drives and its mpv implementation.
package player

import (
	"image/color"
	"time"
)

// Surface is a media output the engine binds sources to. Implementations report
// progress asynchronously through the handler passed to their constructor.
type Surface interface {
	// Load replaces the current media with url.
	Load(url, title string) error
	// Unload stops playback and releases the current media.
	Unload() error

	SetPaused(paused bool) error
	Seek(seconds float64) error
	// SetVolume takes a linear level in [0, 1].
	SetVolume(level float64) error
	SetMuted(muted bool) error
	SetSpeed(rate float64) error
	SetFullscreen(on bool) error

	// SetVariantBitrate restricts adaptive variant selection; 0 restores automatic selection.
	SetVariantBitrate(bitrate int) error
	// SetBufferLimits caps forward and backward buffering.
	SetBufferLimits(forward, back time.Duration) error
	// SupportsNativeAdaptive reports whether Load can play an adaptive manifest by itself.
	SupportsNativeAdaptive() bool

	// AddTextTrack attaches a subtitle file as the showing text track.
	AddTextTrack(path, label string) error
	// RemoveTextTracks hides and detaches every attached text track.
	RemoveTextTracks() error
	ApplySubtitleStyle(style TextStyle) error

	// SetChapters marks named positions on the timeline.
	SetChapters(chapters []Chapter) error
}

// TextStyle is the resolved subtitle presentation.
type TextStyle struct {
	FontSize  int
	Color     color.NRGBA
	BackColor color.NRGBA
	// Position is the cue baseline as a percentage of the surface height; 100 is flush to the bottom.
	Position float64
}

// Chapter is a named timeline marker.
type Chapter struct {
	Title string  `json:"title"`
	Time  float64 `json:"time"`
}

// Event is reported by a Surface. It is one of Ready, TimeChanged, DurationChanged,
// PauseChanged, BufferChanged, Ended, Failed or Exited.
type Event interface {
	surfaceEvent()
}

// Ready reports that the loaded media can start playing.
type Ready struct{}

// TimeChanged reports a new playback position in seconds.
type TimeChanged struct {
	Position float64
}

// DurationChanged reports the media duration in seconds.
type DurationChanged struct {
	Duration float64
}

// PauseChanged reports the surface pause state.
type PauseChanged struct {
	Paused bool
}

// BufferChanged reports how far ahead the media is buffered, as an absolute position in seconds.
type BufferChanged struct {
	BufferedUntil float64
}

// Ended reports the end of the media.
type Ended struct{}

// Failed reports that the media could not be played.
type Failed struct {
	Reason string
}

// Exited reports that the surface itself went away.
type Exited struct{}

func (Ready) surfaceEvent()           {}
func (TimeChanged) surfaceEvent()     {}
func (DurationChanged) surfaceEvent() {}
func (PauseChanged) surfaceEvent()    {}
func (BufferChanged) surfaceEvent()   {}
func (Ended) surfaceEvent()           {}
func (Failed) surfaceEvent()          {}
func (Exited) surfaceEvent()          {}
