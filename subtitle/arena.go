package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/anisan-cli/anistream/filesystem"
	"github.com/google/uuid"
)

// Resource is one staged subtitle file. Release removes it; further calls are no-ops.
type Resource struct {
	ID   uuid.UUID
	Path string

	arena *Arena
	once  sync.Once
	err   error
}

// Release deletes the staged file and forgets it in its arena.
func (r *Resource) Release() error {
	if r == nil {
		return nil
	}
	r.once.Do(func() {
		r.arena.forget(r.ID)
		if err := filesystem.API().Remove(r.Path); err != nil && !os.IsNotExist(err) {
			r.err = fmt.Errorf("release %s: %w", r.Path, err)
		}
	})
	return r.err
}

// Arena owns staged subtitle files under a directory.
type Arena struct {
	dir string

	mu   sync.Mutex
	live map[uuid.UUID]*Resource
}

// NewArena stages files in dir.
func NewArena(dir string) *Arena {
	return &Arena{dir: dir, live: make(map[uuid.UUID]*Resource)}
}

// Stage writes data to a fresh uuid-named file with the given extension.
func (a *Arena) Stage(data []byte, ext string) (*Resource, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate resource id: %w", err)
	}

	path := filepath.Join(a.dir, id.String()+ext)
	if err := filesystem.API().MkdirAll(a.dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create %s: %w", a.dir, err)
	}
	if err := filesystem.API().WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("stage subtitle: %w", err)
	}

	r := &Resource{ID: id, Path: path, arena: a}
	a.mu.Lock()
	a.live[id] = r
	a.mu.Unlock()
	return r, nil
}

// Live reports how many resources are staged and not yet released.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Close releases every live resource.
func (a *Arena) Close() error {
	a.mu.Lock()
	live := make([]*Resource, 0, len(a.live))
	for _, r := range a.live {
		live = append(live, r)
	}
	a.mu.Unlock()

	var first error
	for _, r := range live {
		if err := r.Release(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (a *Arena) forget(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.live, id)
}
