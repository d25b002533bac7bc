// Package hls parses, rewrites and loads HLS playlists for adaptive playback.
package hls

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// AutoLevel selects automatic level switching.
const AutoLevel = -1

// ErrNotPlaylist is returned by Parse for payloads without the #EXTM3U header.
var ErrNotPlaylist = errors.New("not an m3u8 playlist")

// Level is one variant stream of a master playlist.
type Level struct {
	Index   int
	Width   int
	Height  int
	Bitrate int
	URL     string
}

func (l Level) String() string {
	if l.Height > 0 {
		return fmt.Sprintf("%dp", l.Height)
	}
	return fmt.Sprintf("%d kbps", l.Bitrate/1000)
}

// Segment is one media fragment of a media playlist.
type Segment struct {
	URL      string
	Duration float64
}

// Playlist is either a master playlist (Levels set) or a media playlist (Segments set).
type Playlist struct {
	Master         bool
	Levels         []Level
	Segments       []Segment
	TargetDuration float64
	Ended          bool
}

// Duration sums the segment durations of a media playlist.
func (p *Playlist) Duration() float64 {
	var total float64
	for _, s := range p.Segments {
		total += s.Duration
	}
	return total
}

// Parse decodes a playlist, resolving URIs against base.
// Levels are ordered by ascending bitrate and indexed in that order.
func Parse(body []byte, base *url.URL) (*Playlist, error) {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() || !strings.HasPrefix(strings.TrimPrefix(sc.Text(), "\ufeff"), "#EXTM3U") {
		return nil, ErrNotPlaylist
	}

	p := &Playlist{}
	var (
		pendingLevel    *Level
		pendingDuration = -1.0
	)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			attrs := ParseAttributes(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:"))
			lvl := Level{}
			lvl.Bitrate, _ = strconv.Atoi(attrs["BANDWIDTH"])
			if w, h, ok := strings.Cut(attrs["RESOLUTION"], "x"); ok {
				lvl.Width, _ = strconv.Atoi(w)
				lvl.Height, _ = strconv.Atoi(h)
			}
			pendingLevel = &lvl
			p.Master = true
		case strings.HasPrefix(line, "#EXTINF:"):
			value, _, _ := strings.Cut(strings.TrimPrefix(line, "#EXTINF:"), ",")
			d, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid EXTINF %q: %w", line, err)
			}
			pendingDuration = d
		case strings.HasPrefix(line, "#EXT-X-TARGETDURATION:"):
			p.TargetDuration, _ = strconv.ParseFloat(strings.TrimPrefix(line, "#EXT-X-TARGETDURATION:"), 64)
		case line == "#EXT-X-ENDLIST":
			p.Ended = true
		case strings.HasPrefix(line, "#"):
		default:
			abs := resolve(base, line)
			switch {
			case pendingLevel != nil:
				pendingLevel.URL = abs
				p.Levels = append(p.Levels, *pendingLevel)
				pendingLevel = nil
			case pendingDuration >= 0:
				p.Segments = append(p.Segments, Segment{URL: abs, Duration: pendingDuration})
				pendingDuration = -1
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}

	sort.SliceStable(p.Levels, func(i, j int) bool {
		return p.Levels[i].Bitrate < p.Levels[j].Bitrate
	})
	for i := range p.Levels {
		p.Levels[i].Index = i
	}

	return p, nil
}

// ParseAttributes decodes an attribute list such as `BANDWIDTH=800000,CODECS="a,b"`.
// Quoted values are unquoted.
func ParseAttributes(s string) map[string]string {
	attrs := make(map[string]string)
	for len(s) > 0 {
		name, rest, ok := strings.Cut(s, "=")
		if !ok {
			break
		}
		name = strings.TrimSpace(name)

		var value string
		if strings.HasPrefix(rest, `"`) {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				value, rest = rest[1:], ""
			} else {
				value, rest = rest[1:end+1], rest[end+2:]
			}
			rest = strings.TrimPrefix(rest, ",")
		} else {
			value, rest, _ = strings.Cut(rest, ",")
		}

		attrs[name] = value
		s = rest
	}
	return attrs
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
