// Package source defines the stream descriptor domain model: candidate sources,
// subtitle tracks, skip ranges and episode adjacency.
package source

import "strings"

// Source is one candidate rendition of an episode.
type Source struct {
	URL string `json:"url"`
	// MIME-ish media type reported by the provider (e.g. "hls", "mp4").
	MediaType string `json:"type"`
	// IsAdaptiveManifest marks variant-switchable manifest sources.
	IsAdaptiveManifest bool `json:"isM3U8"`
}

// String returns the URL, which is also the source identity for failure tracking.
func (s Source) String() string {
	return s.URL
}

// SameAs compares two sources by URL only.
func (s Source) SameAs(other Source) bool {
	return s.URL == other.URL
}

// LooksAdaptive guesses whether a URL points at an adaptive manifest.
// Providers that omit the flag get it inferred from the extension.
func LooksAdaptive(url string) bool {
	path := url
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(strings.ToLower(path), ".m3u8")
}

// SubtitleTrack is a selectable subtitle language.
type SubtitleTrack struct {
	Label string `json:"lang"`
	URL   string `json:"url"`
}

func (t SubtitleTrack) String() string {
	return t.Label
}
