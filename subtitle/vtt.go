package subtitle

import (
	"bytes"
	"regexp"
)

var srtTiming = regexp.MustCompile(`(\d{1,2}:\d{2}:\d{2}),(\d{3})`)

// ToVTT normalises a subtitle payload to WebVTT. WebVTT input is returned with
// line endings normalised; SubRip cues get a header and dotted millisecond separators.
// It reports false when the payload is neither.
func ToVTT(data []byte) ([]byte, bool) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))

	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("WEBVTT")) {
		return data, true
	}
	if !bytes.Contains(trimmed, []byte("-->")) {
		return nil, false
	}

	var out bytes.Buffer
	out.WriteString("WEBVTT\n\n")
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		if bytes.Contains(line, []byte("-->")) {
			line = srtTiming.ReplaceAll(line, []byte("$1.$2"))
		}
		out.Write(line)
		out.WriteByte('\n')
	}
	return out.Bytes(), true
}
