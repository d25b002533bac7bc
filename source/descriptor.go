package source

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Range is a skippable time window in seconds.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Contains reports whether t lies within [Start, End].
func (r Range) Contains(t float64) bool {
	return t >= r.Start && t <= r.End
}

// Valid reports whether the range is non-empty and non-negative.
func (r Range) Valid() bool {
	return r.Start >= 0 && r.End > r.Start
}

// StreamDescriptor is everything needed to play one episode. It is immutable once
// fetched and replaced wholesale when the episode changes.
type StreamDescriptor struct {
	Sources   []Source
	Subtitles []SubtitleTrack
	Intro     mo.Option[Range]
	Outro     mo.Option[Range]
	// Headers apply uniformly to every source and subtitle request.
	Headers map[string]string
}

type wireDescriptor struct {
	Sources   []Source          `json:"sources"`
	Subtitles []SubtitleTrack   `json:"subtitles"`
	Intro     *Range            `json:"intro,omitempty"`
	Outro     *Range            `json:"outro,omitempty"`
	Headers   map[string]string `json:"headers"`
}

// UnmarshalJSON decodes the provider wire format, dropping malformed ranges and empty URLs.
func (d *StreamDescriptor) UnmarshalJSON(data []byte) error {
	var w wireDescriptor
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode stream descriptor: %w", err)
	}

	*d = StreamDescriptor{
		Sources: lo.Filter(w.Sources, func(s Source, _ int) bool { return s.URL != "" }),
		Subtitles: lo.Filter(w.Subtitles, func(t SubtitleTrack, _ int) bool {
			return t.URL != "" && t.Label != ""
		}),
		Headers: w.Headers,
	}
	if w.Intro != nil && w.Intro.Valid() {
		d.Intro = mo.Some(*w.Intro)
	}
	if w.Outro != nil && w.Outro.Valid() {
		d.Outro = mo.Some(*w.Outro)
	}
	return nil
}

// MarshalJSON encodes the descriptor in the provider wire format.
func (d StreamDescriptor) MarshalJSON() ([]byte, error) {
	w := wireDescriptor{
		Sources:   d.Sources,
		Subtitles: d.Subtitles,
		Headers:   d.Headers,
	}
	if r, ok := d.Intro.Get(); ok {
		w.Intro = &r
	}
	if r, ok := d.Outro.Get(); ok {
		w.Outro = &r
	}
	return json.Marshal(w)
}

// Clone returns a deep copy so that consumers can never mutate a provider's descriptor.
func (d *StreamDescriptor) Clone() *StreamDescriptor {
	if d == nil {
		return nil
	}
	c := &StreamDescriptor{
		Sources:   append([]Source(nil), d.Sources...),
		Subtitles: append([]SubtitleTrack(nil), d.Subtitles...),
		Intro:     d.Intro,
		Outro:     d.Outro,
		Headers:   make(map[string]string, len(d.Headers)),
	}
	for k, v := range d.Headers {
		c.Headers[k] = v
	}
	return c
}

// SubtitleIndex returns the index of the track whose label equals label exactly, or -1.
func (d *StreamDescriptor) SubtitleIndex(label string) int {
	if d == nil {
		return -1
	}
	_, idx, ok := lo.FindIndexOf(d.Subtitles, func(t SubtitleTrack) bool {
		return t.Label == label
	})
	if !ok {
		return -1
	}
	return idx
}
