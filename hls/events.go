package hls

import "fmt"

// ErrorType buckets client errors the way playback failover classifies them.
type ErrorType string

const (
	NetworkError ErrorType = "networkError"
	MediaError   ErrorType = "mediaError"
	OtherError   ErrorType = "otherError"
)

// ErrorDetails names the failing step.
type ErrorDetails string

const (
	ManifestLoadError      ErrorDetails = "manifestLoadError"
	ManifestLoadTimeout    ErrorDetails = "manifestLoadTimeOut"
	ManifestParsingError   ErrorDetails = "manifestParsingError"
	LevelLoadError         ErrorDetails = "levelLoadError"
	LevelLoadTimeout       ErrorDetails = "levelLoadTimeOut"
	LevelEmptyError        ErrorDetails = "levelEmptyError"
	FragLoadError          ErrorDetails = "fragLoadError"
	FragLoadTimeout        ErrorDetails = "fragLoadTimeOut"
	FragParsingError       ErrorDetails = "fragParsingError"
	FragLoadEmergencyAbort ErrorDetails = "fragLoadEmergencyAborted"
	BufferStalledError     ErrorDetails = "bufferStalledError"
	LevelSwitchError       ErrorDetails = "levelSwitchError"
)

// Event is emitted by Client while loading. It is one of ManifestParsed,
// LevelLoaded, FragmentLoaded, LevelSwitched or *Error.
type Event interface {
	hlsEvent()
}

// ManifestParsed carries the enumerated levels; empty for single-rendition playlists.
type ManifestParsed struct {
	Levels []Level
}

// LevelLoaded reports a parsed media playlist.
type LevelLoaded struct {
	Level    int
	Duration float64
	Ended    bool
}

// FragmentLoaded reports the first playable fragment of the selected level.
type FragmentLoaded struct {
	URL   string
	Bytes int
}

// LevelSwitched reports an applied level selection. Level is AutoLevel for automatic.
type LevelSwitched struct {
	Level int
}

// Error is a classified client failure.
type Error struct {
	Type    ErrorType
	Details ErrorDetails
	Fatal   bool
	URL     string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Details, e.Type, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Details, e.Type)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (ManifestParsed) hlsEvent() {}
func (LevelLoaded) hlsEvent()    {}
func (FragmentLoaded) hlsEvent() {}
func (LevelSwitched) hlsEvent()  {}
func (*Error) hlsEvent()         {}
