package hls

import (
	"bufio"
	"bytes"
	"net/url"
	"regexp"
	"strings"
)

// URIKind tells a rewriter whether a URI names another playlist or a byte resource.
type URIKind int

const (
	// KindPlaylist is a nested playlist (variant, rendition, I-frame playlist).
	KindPlaylist URIKind = iota
	// KindResource is a segment, key or init section.
	KindResource
)

var uriAttr = regexp.MustCompile(`URI="([^"]*)"`)

// Rewrite replaces every URI in a playlist with fn(absoluteURI, kind).
// Both bare URI lines and URI="..." attributes are handled. Lines are otherwise untouched.
func Rewrite(body []byte, base *url.URL, fn func(abs string, kind URIKind) string) []byte {
	var out bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	master := bytes.Contains(body, []byte("#EXT-X-STREAM-INF"))

	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "#"):
			kind := KindResource
			if strings.HasPrefix(trimmed, "#EXT-X-MEDIA:") || strings.HasPrefix(trimmed, "#EXT-X-I-FRAME-STREAM-INF:") {
				kind = KindPlaylist
			}
			line = uriAttr.ReplaceAllStringFunc(line, func(m string) string {
				ref := uriAttr.FindStringSubmatch(m)[1]
				return `URI="` + fn(resolve(base, ref), kind) + `"`
			})
		default:
			kind := KindResource
			if master {
				kind = KindPlaylist
			}
			line = fn(resolve(base, trimmed), kind)
		}

		out.WriteString(line)
		out.WriteByte('\n')
	}

	return out.Bytes()
}
