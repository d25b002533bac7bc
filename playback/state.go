package playback

import (
	"errors"

	"github.com/anisan-cli/anistream/hls"
)

// ErrNoSourcesAvailable is the terminal error once every source of an episode has failed.
var ErrNoSourcesAvailable = errors.New("no playable sources available")

// State is the per-episode playback state.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Playing
	Paused
	// Failing is entered while the failed source is swapped for the next candidate.
	Failing
	// Terminal means every source failed; only Retry or a new episode leave it.
	Terminal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Failing:
		return "failing"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Snapshot is the transient playback state read by transport and UI.
type Snapshot struct {
	CurrentTime float64
	Duration    float64
	Playing     bool
	BufferedPct float64
	Loading     bool
	// Error is set only in the terminal state.
	Error string
	// Notice is a transient, recoverable status such as a source switch.
	Notice   string
	State    State
	Source   string
	Levels   []hls.Level
	Quality  int
	Subtitle int
}

const noticeSwitching = "Switching source…"
