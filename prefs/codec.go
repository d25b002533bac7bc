package prefs

import (
	"encoding/json"
)

// record is the flat wire shape of the persisted preferences.
type record struct {
	Volume       float64 `json:"volume"`
	Muted        bool    `json:"muted"`
	Quality      int     `json:"selectedQuality"`
	SubtitleLang string  `json:"selectedSubtitleLang"`
	PlaybackRate float64 `json:"playbackRate"`
	Style
}

func toRecord(p PlayerPreferences) record {
	return record{
		Volume:       p.Volume,
		Muted:        p.Muted,
		Quality:      p.Quality,
		SubtitleLang: p.SubtitleLang,
		PlaybackRate: p.PlaybackRate,
		Style:        p.SubtitleStyle,
	}
}

func encode(p PlayerPreferences) ([]byte, error) {
	return json.Marshal(toRecord(p))
}

// decode merges a persisted record over Defaults field by field.
// Missing, mistyped and out-of-range fields keep their default.
// It returns false if the payload is not a JSON object at all.
func decode(data []byte) (PlayerPreferences, bool) {
	p := Defaults()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return p, false
	}

	field(fields, "volume", &p.Volume, validVolume)
	field(fields, "muted", &p.Muted, nil)
	field(fields, "selectedQuality", &p.Quality, validQuality)
	field(fields, "selectedSubtitleLang", &p.SubtitleLang, func(s string) bool { return s != "" })
	field(fields, "playbackRate", &p.PlaybackRate, validRate)

	s := &p.SubtitleStyle
	field(fields, "subtitleFontSize", &s.FontSize, validFontSize)
	field(fields, "subtitleTextColor", &s.TextColor, ValidColor)
	field(fields, "subtitleBgColor", &s.BackgroundColor, ValidColor)
	field(fields, "subtitleBgOpacity", &s.BackgroundOpacity, validOpacity)
	field(fields, "subtitleVerticalPosition", &s.VerticalPosition, validPosition)

	return p, true
}

func field[T any](fields map[string]json.RawMessage, name string, dst *T, valid func(T) bool) {
	raw, ok := fields[name]
	if !ok {
		return
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	if valid != nil && !valid(v) {
		return
	}
	*dst = v
}
