package tui

import (
	"github.com/anisan-cli/anistream/color"
	"github.com/anisan-cli/anistream/input"
	"github.com/anisan-cli/anistream/style"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
)

// statefulKeymap holds the host bindings. Transport bindings live in player and are
// dispatched by the input router.
type statefulKeymap struct {
	state state

	player input.KeyMap

	quit, forceQuit,
	confirm, play,
	back,
	up, down, left, right,
	top, bottom,
	quality, subtitles, episodes,
	fontUp, fontDown, raise, lower,
	slower, faster,
	showHelp key.Binding
}

func (k *statefulKeymap) setState(newState state) {
	k.state = newState
}

func newStatefulKeymap(player input.KeyMap) *statefulKeymap {
	return &statefulKeymap{
		player: player,
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		play: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp(style.Fg(color.Orange)("enter"), style.Fg(color.Orange)("play")),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "down"),
		),
		left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "left"),
		),
		right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "right"),
		),
		top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "top"),
		),
		bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),
		quality: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "quality"),
		),
		subtitles: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "subtitles"),
		),
		episodes: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "episodes"),
		),
		fontUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "bigger subtitles"),
		),
		fontDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "smaller subtitles"),
		),
		raise: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "raise subtitles"),
		),
		lower: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "lower subtitles"),
		),
		slower: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "slower"),
		),
		faster: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "faster"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *statefulKeymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	to2 := func(a []key.Binding) ([]key.Binding, []key.Binding) {
		return a, a
	}

	switch k.state {
	case loadingState:
		return to2(h(k.forceQuit))
	case episodesState:
		return to2(h(k.play, k.quit))
	case playerState:
		short := append(k.player.ShortHelp(), k.quality, k.subtitles, k.showHelp)
		full := h(
			k.quality, k.subtitles, k.episodes,
			k.fontUp, k.fontDown, k.raise, k.lower,
			k.slower, k.faster, k.quit,
		)
		return short, full
	case qualityState, subtitleState:
		return to2(h(k.confirm, k.back))
	case errorState:
		return to2(h(k.back, k.quit))
	default:
		return to2(h())
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return short
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	if k.state == playerState {
		return append(k.player.FullHelp(), full)
	}
	return [][]key.Binding{full}
}

func (k *statefulKeymap) forList() list.KeyMap {
	return list.KeyMap{
		CursorUp:             k.up,
		CursorDown:           k.down,
		NextPage:             k.right,
		PrevPage:             k.left,
		GoToStart:            k.top,
		GoToEnd:              k.bottom,
		ClearFilter:          k.back,
		CancelWhileFiltering: k.back,
		AcceptWhileFiltering: k.confirm,
		ShowFullHelp:         k.showHelp,
		CloseFullHelp:        k.showHelp,
		Quit:                 k.quit,
		ForceQuit:            k.forceQuit,
	}
}
