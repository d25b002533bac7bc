// Package playertest provides an in-memory player.Surface for tests.
package playertest

import (
	"errors"
	"sync"
	"time"

	"github.com/anisan-cli/anistream/player"
)

// Track is an attached text track.
type Track struct {
	Path  string
	Label string
}

// Surface records every call. Fields are read by tests after taking Lock or via the accessor methods.
type Surface struct {
	mu sync.Mutex

	Loaded     []string
	Unloads    int
	Paused     bool
	Position   float64
	Volume     float64
	Muted      bool
	Speed      float64
	Fullscreen bool
	Bitrates   []int
	Forward    time.Duration
	Back       time.Duration
	Tracks     []Track
	Removals   int
	Style      player.TextStyle
	Styles     int
	Chapters   []player.Chapter
	Native     bool

	// FailLoad makes Load return an error.
	FailLoad bool
}

// New returns a Surface that supports native adaptive playback.
func New() *Surface {
	return &Surface{Native: true, Paused: true, Volume: 1, Speed: 1}
}

var errLoad = errors.New("load refused")

func (s *Surface) Load(url, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailLoad {
		return errLoad
	}
	s.Loaded = append(s.Loaded, url)
	s.Position = 0
	return nil
}

func (s *Surface) Unload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Unloads++
	return nil
}

func (s *Surface) SetPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Paused = paused
	return nil
}

func (s *Surface) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Position = seconds
	return nil
}

func (s *Surface) SetVolume(level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Volume = level
	return nil
}

func (s *Surface) SetMuted(muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Muted = muted
	return nil
}

func (s *Surface) SetSpeed(rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Speed = rate
	return nil
}

func (s *Surface) SetFullscreen(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fullscreen = on
	return nil
}

func (s *Surface) SetVariantBitrate(bitrate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Bitrates = append(s.Bitrates, bitrate)
	return nil
}

func (s *Surface) SetBufferLimits(forward, back time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Forward, s.Back = forward, back
	return nil
}

func (s *Surface) SupportsNativeAdaptive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Native
}

func (s *Surface) AddTextTrack(path, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tracks = append(s.Tracks, Track{Path: path, Label: label})
	return nil
}

func (s *Surface) RemoveTextTracks() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tracks = nil
	s.Removals++
	return nil
}

func (s *Surface) ApplySubtitleStyle(style player.TextStyle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Style = style
	s.Styles++
	return nil
}

func (s *Surface) SetChapters(chapters []player.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Chapters = chapters
	return nil
}

// LastLoaded returns the most recently loaded URL or "".
func (s *Surface) LastLoaded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Loaded) == 0 {
		return ""
	}
	return s.Loaded[len(s.Loaded)-1]
}

// Loads returns how many times Load succeeded.
func (s *Surface) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Loaded)
}

// AttachedTracks returns a copy of the attached text tracks.
func (s *Surface) AttachedTracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Track(nil), s.Tracks...)
}

// CurrentPosition returns the last sought position.
func (s *Surface) CurrentPosition() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Position
}

var _ player.Surface = (*Surface)(nil)
