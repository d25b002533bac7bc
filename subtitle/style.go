package subtitle

import (
	"image/color"
	"math"
	"strconv"

	"github.com/anisan-cli/anistream/player"
	"github.com/anisan-cli/anistream/prefs"
	"github.com/anisan-cli/anistream/util"
)

// Render resolves a subtitle style preference into surface terms. It is pure.
// The background alpha comes from the opacity; Position follows the vertical
// percentage directly, so 100 sits on the bottom edge and smaller values move cues up.
func Render(s prefs.Style) player.TextStyle {
	d := prefs.Defaults().SubtitleStyle

	text, ok := parseHex(s.TextColor)
	if !ok {
		text, _ = parseHex(d.TextColor)
	}
	back, ok := parseHex(s.BackgroundColor)
	if !ok {
		back, _ = parseHex(d.BackgroundColor)
	}
	back.A = uint8(math.Round(util.Clamp(s.BackgroundOpacity, 0, 1) * 255))

	return player.TextStyle{
		FontSize:  util.Clamp(s.FontSize, prefs.MinFontSize, prefs.MaxFontSize),
		Color:     text,
		BackColor: back,
		Position:  util.Clamp(s.VerticalPosition, prefs.MinVerticalPosition, 100),
	}
}

func parseHex(c string) (color.NRGBA, bool) {
	if !prefs.ValidColor(c) {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(c[1:], 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, true
}
