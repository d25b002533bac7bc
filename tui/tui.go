// Package tui is the terminal host of a playback session: episode picker, now-playing
// panel and the quality and subtitle menus.
package tui

import (
	"github.com/anisan-cli/anistream/playback"
	"github.com/anisan-cli/anistream/provider"
	"github.com/anisan-cli/anistream/transport"
	tea "github.com/charmbracelet/bubbletea"
)

// Options wires a session into the interface.
type Options struct {
	Provider   provider.Provider
	Controller *playback.Controller
	Transport  *transport.Transport
	// Exited is closed when the playback surface goes away.
	Exited <-chan struct{}
	// Episode, when set, is played immediately instead of showing the list.
	Episode string
}

// Run executes the Bubble Tea program until the user quits or the surface exits.
func Run(options *Options) error {
	bubble := newBubble(options)
	defer bubble.close()

	_, err := tea.NewProgram(bubble, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}
