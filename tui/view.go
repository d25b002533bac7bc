package tui

import (
	"fmt"
	"strings"

	"github.com/anisan-cli/anistream/color"
	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/icon"
	"github.com/anisan-cli/anistream/playback"
	"github.com/anisan-cli/anistream/style"
	"github.com/anisan-cli/anistream/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	switch b.state {
	case loadingState:
		return b.viewLoading()
	case episodesState:
		return listExtraPaddingStyle.Render(b.episodesC.View())
	case playerState:
		return b.viewPlayer()
	case qualityState:
		return listExtraPaddingStyle.Render(b.qualityC.View())
	case subtitleState:
		return listExtraPaddingStyle.Render(b.subtitleC.View())
	case errorState:
		return b.viewError()
	default:
		return "Unknown state"
	}
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			b.spinnerC.View() + " " + b.progressStatus,
		},
	)
}

func (b *statefulBubble) viewPlayer() string {
	s := b.snapshot

	var episodeName string
	if episode, ok := b.current.Get(); ok {
		episodeName = episode.String()
	}

	status := icon.Get(icon.Pause)
	if s.Playing {
		status = icon.Get(icon.Play)
	}

	lines := []string{
		style.Title("Now Playing"),
		"",
		truncate.StringWithTail(fmt.Sprintf("%s %s", status, style.Fg(color.Purple)(episodeName)), uint(max(b.width, 0)), "…"),
		"",
	}

	switch {
	case s.Error != "":
		lines = append(lines, b.errorPanel(s)...)
	case s.Loading:
		lines = append(lines, b.spinnerC.View()+" "+lo.Ternary(s.Notice != "", s.Notice, "Loading…"))
	case s.Notice != "":
		lines = append(lines, style.Fg(color.Yellow)(s.Notice))
	default:
		lines = append(lines, style.Faint(s.State.String()))
	}

	lines = append(lines, "", b.progressLine(s))

	if b.router.ControlsVisible() {
		lines = append(lines, "", b.controlsLine(s))
		if hints := b.skipHints(); hints != "" {
			lines = append(lines, "", hints)
		}
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) errorPanel(s playback.Snapshot) []string {
	failed := b.options.Controller.Failed()
	panel := []string{
		style.ErrorTitle("Playback failed"),
		"",
		wrap.String(style.Fg(color.Red)(s.Error), max(b.width, 1)),
	}
	if len(failed) > 0 {
		panel = append(panel, style.Faint(util.Quantify(len(failed), "source failed", "sources failed")))
	}
	return append(panel, "", style.Faint(fmt.Sprintf("press %s to retry", b.keymap.player.Retry.Help().Key)))
}

func (b *statefulBubble) progressLine(s playback.Snapshot) string {
	var pct float64
	if s.Duration > 0 {
		pct = s.CurrentTime / s.Duration
	}

	return fmt.Sprintf(
		"%s %s / %s %s",
		b.progressC.ViewAs(util.Clamp(pct, 0, 1)),
		util.Timestamp(s.CurrentTime),
		util.Timestamp(s.Duration),
		style.Faint(fmt.Sprintf("(%.0f%% buffered)", s.BufferedPct)),
	)
}

func (b *statefulBubble) controlsLine(s playback.Snapshot) string {
	p := b.options.Controller.Preferences()

	quality := "Auto"
	if s.Quality != hls.AutoLevel && s.Quality < len(s.Levels) {
		quality = s.Levels[s.Quality].String()
	}

	subtitle := "Off"
	if desc := b.options.Controller.Descriptor(); desc != nil && s.Subtitle >= 0 && s.Subtitle < len(desc.Subtitles) {
		subtitle = desc.Subtitles[s.Subtitle].Label
	}

	volume := fmt.Sprintf("%s %.0f%%", icon.Get(icon.Volume), p.Volume*100)
	if p.Muted {
		volume = icon.Get(icon.Mute) + " muted"
	}

	parts := []string{
		fmt.Sprintf("%s %s", icon.Get(icon.Quality), quality),
		fmt.Sprintf("%s %s", icon.Get(icon.Subtitle), subtitle),
		volume,
		fmt.Sprintf("%gx", p.PlaybackRate),
	}
	if b.options.Transport.Fullscreen() {
		parts = append(parts, icon.Get(icon.Fullscreen))
	}

	return strings.Join(parts, style.Faint(" • "))
}

func (b *statefulBubble) skipHints() string {
	var hints []string
	keys := b.keymap.player
	if b.options.Transport.CanSkipIntro() {
		hints = append(hints, fmt.Sprintf("%s %s skip intro", icon.Get(icon.Skip), keys.SkipIntro.Help().Key))
	}
	if b.options.Transport.CanSkipOutro() {
		hints = append(hints, fmt.Sprintf("%s %s skip outro", icon.Get(icon.Skip), keys.SkipOutro.Help().Key))
	}
	if len(hints) == 0 {
		return ""
	}
	return style.Fg(color.Orange)(strings.Join(hints, "   "))
}

func (b *statefulBubble) viewError() string {
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorMsg := wrap.String(errorStyle.Render(b.lastError.Error()), max(b.width, 1))
	return b.renderLines(
		true,
		[]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " An error occurred:",
			"",
			errorMsg,
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	l := strings.Join(lines, "\n")
	h := lipgloss.Height(l)
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
