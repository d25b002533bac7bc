package source

import "fmt"

// Episode identifies one playable unit offered by a provider.
type Episode struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number int    `json:"number"`
	// MalID links the episode's series to MyAnimeList for skip-time lookups. Zero when unknown.
	MalID int `json:"malId,omitempty"`
}

func (e Episode) String() string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("Episode %d", e.Number)
}

// Adjacency is supplied by the host; the engine never computes neighbours itself.
type Adjacency struct {
	HasNext     bool
	HasPrevious bool
	OnNext      func()
	OnPrevious  func()
}

// AdjacencyOf derives availability flags for position i of an ordered episode list.
// The callbacks receive the neighbouring episode.
func AdjacencyOf(episodes []Episode, i int, open func(Episode)) Adjacency {
	a := Adjacency{
		HasPrevious: i > 0 && i < len(episodes),
		HasNext:     i >= 0 && i+1 < len(episodes),
	}
	if a.HasPrevious {
		prev := episodes[i-1]
		a.OnPrevious = func() { open(prev) }
	}
	if a.HasNext {
		next := episodes[i+1]
		a.OnNext = func() { open(next) }
	}
	return a
}
