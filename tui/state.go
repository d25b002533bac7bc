package tui

type state int

const (
	loadingState state = iota
	errorState
	episodesState
	playerState
	qualityState
	subtitleState
)

// transient states are never returned to with back.
func (s state) transient() bool {
	return s == loadingState || s == errorState
}

// history is the back stack of visited states.
type history []state

func (h *history) push(s state) {
	if s.transient() {
		return
	}
	*h = append(*h, s)
}

// pop returns the last visited state, or false when there is none.
func (h *history) pop() (state, bool) {
	if len(*h) == 0 {
		return 0, false
	}
	last := (*h)[len(*h)-1]
	*h = (*h)[:len(*h)-1]
	return last, true
}

// resetTo drops everything and leaves s as the only way back.
func (h *history) resetTo(s state) {
	*h = (*h)[:0]
	h.push(s)
}
