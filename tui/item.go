package tui

import (
	"fmt"

	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/icon"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/style"
	"github.com/charmbracelet/lipgloss"
)

// qualityOption is one entry of the quality menu. level is hls.AutoLevel for "Auto".
type qualityOption struct {
	index int
	level hls.Level
}

// subtitleOption is one entry of the subtitle menu. index is -1 for "Off".
type subtitleOption struct {
	index int
	track source.SubtitleTrack
}

// listItem implements list.Item for episodes and menu options.
type listItem struct {
	internal interface{}
	marked   bool
}

func (t *listItem) getMark() string {
	return lipgloss.NewStyle().Bold(true).Foreground(style.AccentColor).Render(icon.Get(icon.Success))
}

func (t *listItem) Title() (title string) {
	switch e := t.internal.(type) {
	case *source.Episode:
		title = e.String()
	case *qualityOption:
		if e.index == hls.AutoLevel {
			title = "Auto"
		} else {
			title = e.level.String()
		}
	case *subtitleOption:
		if e.index < 0 {
			title = "Off"
		} else {
			title = e.track.Label
		}
	default:
		title = t.FilterValue()
	}

	if title != "" && t.marked {
		title = fmt.Sprintf("%s %s", title, t.getMark())
	}
	return
}

func (t *listItem) Description() (description string) {
	switch e := t.internal.(type) {
	case *source.Episode:
		description = fmt.Sprintf("Episode %d", e.Number)
		if e.MalID > 0 {
			description += style.Faint(fmt.Sprintf(" • MAL %d", e.MalID))
		}
	case *qualityOption:
		if e.index != hls.AutoLevel {
			description = fmt.Sprintf("%d kbps", e.level.Bitrate/1000)
			if e.level.Width > 0 {
				description += style.Faint(fmt.Sprintf(" • %dx%d", e.level.Width, e.level.Height))
			}
		} else {
			description = "Adapt to bandwidth"
		}
	case *subtitleOption:
		if e.index >= 0 {
			description = style.Faint(e.track.URL)
		}
	}
	return
}

func (t *listItem) FilterValue() string {
	switch e := t.internal.(type) {
	case *source.Episode:
		return e.Name
	case *qualityOption:
		return e.level.String()
	case *subtitleOption:
		return e.track.Label
	case string:
		return e
	default:
		return ""
	}
}
