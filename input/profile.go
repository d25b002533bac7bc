package input

import (
	"strings"

	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/util"
	"github.com/spf13/viper"
)

// Profile selects keyboard-and-pointer or touch handling.
type Profile int

const (
	Desktop Profile = iota
	Mobile
)

func (p Profile) String() string {
	if p == Mobile {
		return "mobile"
	}
	return "desktop"
}

// ProfileFor resolves a profile setting. "auto" picks Mobile when width is known and below mobileWidth.
func ProfileFor(setting string, width, mobileWidth int) Profile {
	switch strings.ToLower(setting) {
	case "mobile":
		return Mobile
	case "desktop":
		return Desktop
	}
	if width > 0 && width < mobileWidth {
		return Mobile
	}
	return Desktop
}

// DetectProfile reads input.profile and, for "auto", the terminal width.
func DetectProfile() Profile {
	width, _, err := util.TerminalSize()
	if err != nil {
		log.Debugf("input: terminal size unavailable: %v", err)
		width = 0
	}
	p := ProfileFor(viper.GetString(key.InputProfile), width, viper.GetInt(key.InputMobileWidth))
	log.Infof("input profile: %s", p)
	return p
}
