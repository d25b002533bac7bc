// Package subtitle fetches, stages and styles the single active subtitle track.
package subtitle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/player"
	"github.com/anisan-cli/anistream/prefs"
	"github.com/anisan-cli/anistream/proxy"
	"github.com/anisan-cli/anistream/source"
	"github.com/samber/mo"
)

// ErrSuperseded is returned by Activate when a newer activation or invalidation overtook it.
var ErrSuperseded = errors.New("subtitle activation superseded")

// Pipeline presents at most one subtitle track on a surface.
// Fetch failures are logged and leave no track attached.
type Pipeline struct {
	surface player.Surface
	gateway *proxy.Gateway
	doer    network.Doer
	arena   *Arena
	timeout time.Duration

	mu         sync.Mutex
	generation uint64
	current    *Resource
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimeout bounds each subtitle fetch.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// NewPipeline wires a pipeline. Subtitles are fetched through gateway's stream endpoint.
func NewPipeline(surface player.Surface, gateway *proxy.Gateway, doer network.Doer, arena *Arena, opts ...Option) *Pipeline {
	p := &Pipeline{
		surface: surface,
		gateway: gateway,
		doer:    doer,
		arena:   arena,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Activate replaces the presented track. None detaches everything.
// It blocks on the fetch; a call overtaken by a later Activate or Invalidate
// returns ErrSuperseded and leaves no trace.
func (p *Pipeline) Activate(ctx context.Context, track mo.Option[source.SubtitleTrack], headers map[string]string) error {
	return p.ActivateIf(ctx, track, headers, nil)
}

// ActivateIf is Activate gated on valid, which is evaluated atomically with the
// start of the activation. valid must not call back into the pipeline.
func (p *Pipeline) ActivateIf(ctx context.Context, track mo.Option[source.SubtitleTrack], headers map[string]string, valid func() bool) error {
	p.mu.Lock()
	if valid != nil && !valid() {
		p.mu.Unlock()
		return ErrSuperseded
	}
	p.generation++
	gen := p.generation
	p.detachLocked()
	p.mu.Unlock()

	t, ok := track.Get()
	if !ok {
		return nil
	}

	data, err := p.fetch(ctx, t, headers)
	if err != nil {
		log.Warnw("subtitle fetch failed", log.Fields{"label": t.Label, "error": err})
		return nil
	}

	vtt, ok := ToVTT(data)
	if !ok {
		log.Warnw("subtitle payload is not WebVTT or SubRip", log.Fields{"label": t.Label})
		return nil
	}

	if !p.isCurrent(gen) {
		return ErrSuperseded
	}

	res, err := p.arena.Stage(vtt, ".vtt")
	if err != nil {
		log.Warnw("subtitle staging failed", log.Fields{"label": t.Label, "error": err})
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		_ = res.Release()
		return ErrSuperseded
	}

	if err := p.surface.AddTextTrack(res.Path, t.Label); err != nil {
		_ = res.Release()
		log.Warnw("attach subtitle track", log.Fields{"label": t.Label, "error": err})
		return nil
	}
	p.current = res
	return nil
}

// Invalidate discards any in-flight activation without touching the surface.
func (p *Pipeline) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
}

// Release detaches the track and frees its resource. The surface is being unloaded or replaced.
func (p *Pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.detachLocked()
}

// Close releases everything the pipeline staged.
func (p *Pipeline) Close() error {
	p.Release()
	return p.arena.Close()
}

// ApplyStyle renders s and pushes it to the surface.
func (p *Pipeline) ApplyStyle(s prefs.Style) error {
	return p.surface.ApplySubtitleStyle(Render(s))
}

// Active returns the staged resource of the attached track, if any.
func (p *Pipeline) Active() mo.Option[*Resource] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return mo.None[*Resource]()
	}
	return mo.Some(p.current)
}

func (p *Pipeline) isCurrent(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen == p.generation
}

func (p *Pipeline) detachLocked() {
	if err := p.surface.RemoveTextTracks(); err != nil {
		log.Warnf("remove text tracks: %v", err)
	}
	if err := p.current.Release(); err != nil {
		log.Warnf("release subtitle: %v", err)
	}
	p.current = nil
}

func (p *Pipeline) fetch(ctx context.Context, t source.SubtitleTrack, headers map[string]string) ([]byte, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	target := p.gateway.StreamURL(t.URL, headers)
	data, err := network.Fetch(ctx, p.doer, target, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", t.Label, err)
	}
	return data, nil
}
