// Package prefs persists the user's playback preferences as a single JSON record.
package prefs

import (
	"regexp"
)

const (
	// AutoQuality lets the manifest client pick the level.
	AutoQuality = -1
	// SubtitleOff is the persisted label for "no subtitle".
	SubtitleOff = "off"
)

// Style is the subtitle presentation.
type Style struct {
	FontSize          int     `json:"subtitleFontSize"`
	TextColor         string  `json:"subtitleTextColor"`
	BackgroundColor   string  `json:"subtitleBgColor"`
	BackgroundOpacity float64 `json:"subtitleBgOpacity"`
	// VerticalPosition is a percentage of the surface height; 100 is flush to the bottom.
	VerticalPosition float64 `json:"subtitleVerticalPosition"`
}

// PlayerPreferences is the persisted aggregate.
type PlayerPreferences struct {
	Volume        float64 `json:"volume"`
	Muted         bool    `json:"muted"`
	Quality       int     `json:"selectedQuality"`
	SubtitleLang  string  `json:"selectedSubtitleLang"`
	PlaybackRate  float64 `json:"playbackRate"`
	SubtitleStyle Style   `json:"-"`
}

// Defaults returns the preferences used on first run and for every field that fails validation.
func Defaults() PlayerPreferences {
	return PlayerPreferences{
		Volume:       1,
		Muted:        false,
		Quality:      AutoQuality,
		SubtitleLang: SubtitleOff,
		PlaybackRate: 1,
		SubtitleStyle: Style{
			FontSize:          24,
			TextColor:         "#ffffff",
			BackgroundColor:   "#000000",
			BackgroundOpacity: 0.5,
			VerticalPosition:  90,
		},
	}
}

// Bounds of the validated numeric fields.
const (
	MinFontSize         = 8
	MaxFontSize         = 96
	MinVerticalPosition = 60
	MaxVerticalPosition = 95
	MaxPlaybackRate     = 4
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidColor reports whether c is a #rrggbb color.
func ValidColor(c string) bool {
	return hexColor.MatchString(c)
}

// Valid reports whether every field is inside its accepted range.
func (p PlayerPreferences) Valid() bool {
	s := p.SubtitleStyle
	return validVolume(p.Volume) &&
		validQuality(p.Quality) &&
		p.SubtitleLang != "" &&
		validRate(p.PlaybackRate) &&
		validFontSize(s.FontSize) &&
		ValidColor(s.TextColor) &&
		ValidColor(s.BackgroundColor) &&
		validOpacity(s.BackgroundOpacity) &&
		validPosition(s.VerticalPosition)
}

func validVolume(v float64) bool   { return v >= 0 && v <= 1 }
func validQuality(q int) bool      { return q >= AutoQuality }
func validRate(r float64) bool     { return r > 0 && r <= MaxPlaybackRate }
func validFontSize(s int) bool     { return s >= MinFontSize && s <= MaxFontSize }
func validOpacity(o float64) bool  { return o >= 0 && o <= 1 }
func validPosition(p float64) bool { return p >= MinVerticalPosition && p <= MaxVerticalPosition }
