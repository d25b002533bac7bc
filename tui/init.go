package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Init loads the episode list and starts listening for snapshots and surface exit.
func (b *statefulBubble) Init() tea.Cmd {
	b.startLoading("Listing episodes")
	return tea.Batch(
		b.spinnerC.Tick,
		b.loadEpisodes(),
		b.waitForSnapshot(),
		b.waitForControls(),
		b.waitForExit(),
	)
}
