package input

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap binds keyboard keys to transport commands.
type KeyMap struct {
	TogglePlay,
	SeekBack, SeekForward,
	VolumeUp, VolumeDown,
	Fullscreen, Mute,
	SkipIntro, SkipOutro,
	NextEpisode, PrevEpisode,
	Retry key.Binding
}

// DefaultKeyMap returns the desktop bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		TogglePlay: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		SeekBack: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "back"),
		),
		SeekForward: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "forward"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "volume down"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fullscreen"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		SkipIntro: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "skip intro"),
		),
		SkipOutro: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "skip outro"),
		),
		NextEpisode: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next episode"),
		),
		PrevEpisode: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous episode"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.TogglePlay, k.SeekBack, k.SeekForward, k.SkipIntro, k.NextEpisode}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TogglePlay, k.SeekBack, k.SeekForward, k.VolumeUp, k.VolumeDown},
		{k.Fullscreen, k.Mute, k.SkipIntro, k.SkipOutro},
		{k.NextEpisode, k.PrevEpisode, k.Retry},
	}
}
