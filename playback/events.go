package playback

import (
	"errors"
	"fmt"

	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/player"
)

// ErrorKind classifies a load failure.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindMedia
	KindManifestLoad
	KindManifestTimeout
	KindManifestParsing
	KindLevelLoad
	KindLevelTimeout
	KindLevelEmpty
	KindFragmentLoad
	KindFragmentTimeout
	KindFragmentAbort
	KindBufferStall
	KindSurface
	KindOther
)

var kindNames = map[ErrorKind]string{
	KindNetwork:         "network error",
	KindMedia:           "media error",
	KindManifestLoad:    "manifest load error",
	KindManifestTimeout: "manifest load timeout",
	KindManifestParsing: "manifest parsing error",
	KindLevelLoad:       "level load error",
	KindLevelTimeout:    "level load timeout",
	KindLevelEmpty:      "level empty",
	KindFragmentLoad:    "fragment load error",
	KindFragmentTimeout: "fragment load timeout",
	KindFragmentAbort:   "fragment emergency abort",
	KindBufferStall:     "buffer stalled",
	KindSurface:         "surface error",
	KindOther:           "other error",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is consumed by Controller.Dispatch. Events stamped with a superseded generation are dropped.
type Event interface {
	Generation() uint64
}

// Stamp ties an event to the load that produced it.
type Stamp struct {
	Gen uint64
}

func (s Stamp) Generation() uint64 {
	return s.Gen
}

// SourceLoaded reports that the manifest client validated the source, or that a direct load was issued.
type SourceLoaded struct{ Stamp }

// LevelsParsed carries the quality levels of an adaptive source.
type LevelsParsed struct {
	Stamp
	Levels []hls.Level
}

// FatalError triggers recovery or failover of the current source.
type FatalError struct {
	Stamp
	Kind ErrorKind
	Err  error
}

// NonFatalError is logged only.
type NonFatalError struct {
	Stamp
	Kind ErrorKind
	Err  error
}

// SurfaceReady reports that the surface can start playing the current source.
type SurfaceReady struct{ Stamp }

// TimeUpdate reports the playback position.
type TimeUpdate struct {
	Stamp
	Position float64
}

// DurationUpdate reports the media duration.
type DurationUpdate struct {
	Stamp
	Duration float64
}

// PlayState reports whether the surface is playing.
type PlayState struct {
	Stamp
	Playing bool
}

// BufferUpdate reports the buffered-until position in seconds.
type BufferUpdate struct {
	Stamp
	BufferedUntil float64
}

// Ended reports end of media.
type Ended struct{ Stamp }

// WatchdogFired reports that the load timeout elapsed.
type WatchdogFired struct{ Stamp }

// Classify maps a manifest client event to a controller event for generation gen.
// It returns nil for events the controller does not consume.
func Classify(gen uint64, ev hls.Event) Event {
	stamp := Stamp{Gen: gen}
	switch e := ev.(type) {
	case hls.ManifestParsed:
		return LevelsParsed{Stamp: stamp, Levels: e.Levels}
	case hls.FragmentLoaded:
		return SourceLoaded{Stamp: stamp}
	case *hls.Error:
		kind := kindOf(e)
		if e.Fatal {
			return FatalError{Stamp: stamp, Kind: kind, Err: e}
		}
		return NonFatalError{Stamp: stamp, Kind: kind, Err: e}
	}
	return nil
}

func kindOf(e *hls.Error) ErrorKind {
	switch e.Details {
	case hls.ManifestLoadError:
		return KindManifestLoad
	case hls.ManifestLoadTimeout:
		return KindManifestTimeout
	case hls.ManifestParsingError:
		return KindManifestParsing
	case hls.LevelLoadError:
		return KindLevelLoad
	case hls.LevelLoadTimeout:
		return KindLevelTimeout
	case hls.LevelEmptyError:
		return KindLevelEmpty
	case hls.FragLoadError:
		return KindFragmentLoad
	case hls.FragLoadTimeout:
		return KindFragmentTimeout
	case hls.FragLoadEmergencyAbort:
		return KindFragmentAbort
	case hls.BufferStalledError:
		return KindBufferStall
	}

	switch e.Type {
	case hls.NetworkError:
		return KindNetwork
	case hls.MediaError:
		return KindMedia
	}
	return KindOther
}

// fromSurface maps a surface event to a controller event for generation gen.
func fromSurface(gen uint64, ev player.Event) Event {
	stamp := Stamp{Gen: gen}
	switch e := ev.(type) {
	case player.Ready:
		return SurfaceReady{Stamp: stamp}
	case player.TimeChanged:
		return TimeUpdate{Stamp: stamp, Position: e.Position}
	case player.DurationChanged:
		return DurationUpdate{Stamp: stamp, Duration: e.Duration}
	case player.PauseChanged:
		return PlayState{Stamp: stamp, Playing: !e.Paused}
	case player.BufferChanged:
		return BufferUpdate{Stamp: stamp, BufferedUntil: e.BufferedUntil}
	case player.Ended:
		return Ended{Stamp: stamp}
	case player.Failed:
		return FatalError{Stamp: stamp, Kind: KindSurface, Err: errors.New(e.Reason)}
	}
	return nil
}
