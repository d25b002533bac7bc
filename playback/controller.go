// Package playback binds stream sources to the playback surface: adaptive manifest
// handling, quality levels, failover between sources and the per-episode state machine.
package playback

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/anisan-cli/anistream/clock"
	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/player"
	"github.com/anisan-cli/anistream/prefs"
	"github.com/anisan-cli/anistream/proxy"
	"github.com/anisan-cli/anistream/resolver"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/subtitle"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Deps are the collaborators of a Controller.
type Deps struct {
	Surface   player.Surface
	Gateway   *proxy.Gateway
	Doer      network.Doer
	Subtitles *subtitle.Pipeline
	Prefs     *prefs.Store
	Clock     clock.Clock
	Scheduler Scheduler
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// Controller owns the surface/manifest-client pairing for the current episode.
// Every mutation happens under one lock, so each call or dispatched event is a single turn.
type Controller struct {
	deps Deps
	cfg  Config

	// gen is written under mu and read lock-free to stamp incoming events.
	gen atomic.Uint64
	// surfaceGen is the generation whose media the surface was last told to load.
	// Surface events are stamped with it, so events of the previous media stay stale
	// until the next Surface.Load is issued.
	surfaceGen atomic.Uint64

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	prefs       prefs.PlayerPreferences
	desc        *source.StreamDescriptor
	title       string
	failed      *resolver.FailedSet
	active      mo.Option[source.Source]
	client      *hls.Client
	manifestURL string
	levels      []hls.Level
	quality     int
	subtitle    int
	recovered   bool
	ready       bool
	mounted     bool
	state       State
	snap        Snapshot
	watchdog    clock.Timer
	subscribers map[int]func(Snapshot)
	nextSub     int
}

// New builds a controller. Preferences are read once here.
func New(deps Deps, opts ...Option) *Controller {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = NewLoop()
	}
	if deps.Doer == nil {
		deps.Doer = network.Client
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		deps:        deps,
		cfg:         DefaultConfig(),
		ctx:         ctx,
		cancel:      cancel,
		prefs:       prefs.Defaults(),
		failed:      resolver.NewFailedSet(),
		quality:     hls.AutoLevel,
		subtitle:    -1,
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if deps.Prefs != nil {
		c.prefs = deps.Prefs.Load()
	}
	c.quality = c.prefs.Quality
	c.snap.Quality = c.quality
	c.snap.Subtitle = -1
	return c
}

// SurfaceHandler returns the callback to hand to the surface constructor.
func (c *Controller) SurfaceHandler() func(player.Event) {
	return func(ev player.Event) {
		if mapped := fromSurface(c.surfaceGen.Load(), ev); mapped != nil {
			c.post(mapped)
		}
	}
}

// Generation identifies the current load. Events stamped with an older one are dropped.
func (c *Controller) Generation() uint64 {
	return c.gen.Load()
}

// SetTitle names the media shown by the surface for following loads.
func (c *Controller) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.title = title
}

// LoadEpisode replaces the descriptor, clears failures, resolves the subtitle from the
// persisted label and loads the first ranked source.
func (c *Controller) LoadEpisode(desc *source.StreamDescriptor) {
	if desc == nil {
		desc = &source.StreamDescriptor{}
	}
	c.turn(func() {
		c.desc = desc.Clone()
		c.failed.Reset()
		c.quality = c.prefs.Quality
		c.subtitle = c.resolveSubtitle()
		c.snap = Snapshot{Quality: c.quality, Subtitle: c.subtitle}

		ranked := resolver.Rank(c.desc.Sources, c.failed)
		if len(ranked) == 0 {
			c.terminalLocked()
			return
		}
		c.loadSourceLocked(ranked[0])
	})
}

// LoadSource loads src for the current episode.
func (c *Controller) LoadSource(src source.Source) {
	c.turn(func() {
		c.loadSourceLocked(src)
	})
}

// Retry reloads the currently selected source. Failed sources stay failed.
func (c *Controller) Retry() {
	c.turn(func() {
		if src, ok := c.active.Get(); ok {
			c.loadSourceLocked(src)
			return
		}
		if c.desc == nil {
			return
		}
		if ranked := resolver.Rank(c.desc.Sources, c.failed); len(ranked) > 0 {
			c.loadSourceLocked(ranked[0])
		}
	})
}

// SetQuality selects level i, hls.AutoLevel for automatic, on the live manifest client.
// Selecting the current level again changes nothing.
func (c *Controller) SetQuality(i int) error {
	var err error
	c.turn(func() {
		if i < hls.AutoLevel || i >= len(c.levels) {
			err = fmt.Errorf("quality %d out of range [-1, %d)", i, len(c.levels))
			return
		}
		if i == c.quality {
			return
		}
		if c.client == nil {
			err = fmt.Errorf("no adaptive source loaded")
			return
		}
		if err = c.client.SetLevel(i); err != nil {
			return
		}
		c.quality = i
		c.snap.Quality = i
	})
	return err
}

// SelectSubtitle activates track index, -1 for off. The track is (re)loaded once the surface is ready.
func (c *Controller) SelectSubtitle(index int) error {
	var err error
	c.turn(func() {
		n := 0
		if c.desc != nil {
			n = len(c.desc.Subtitles)
		}
		if index < -1 || index >= n {
			err = fmt.Errorf("subtitle %d out of range [-1, %d)", index, n)
			return
		}
		c.subtitle = index
		c.snap.Subtitle = index
		if c.ready {
			c.scheduleSubtitleLocked()
		}
	})
	return err
}

// Dispatch is the single entry point for asynchronous outcomes.
func (c *Controller) Dispatch(ev Event) {
	c.turn(func() {
		if ev.Generation() != c.gen.Load() {
			log.Debugf("playback: dropping stale %T (gen %d, current %d)", ev, ev.Generation(), c.gen.Load())
			return
		}
		c.handleLocked(ev)
	})
}

// Subscribe registers fn for a snapshot after every turn. It returns an unsubscribe func.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Snapshot returns a copy of the transient playback state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active returns the source currently bound to the surface.
func (c *Controller) Active() mo.Option[source.Source] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Failed returns the URLs of sources that failed for this episode.
func (c *Controller) Failed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed.URLs()
}

// Ranked returns the sources still available for this episode, in attempt order.
func (c *Controller) Ranked() []source.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.desc == nil {
		return nil
	}
	return resolver.Rank(c.desc.Sources, c.failed)
}

// Levels returns the quality levels of the current adaptive source.
func (c *Controller) Levels() []hls.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]hls.Level(nil), c.levels...)
}

// Quality returns the selected level, hls.AutoLevel for automatic.
func (c *Controller) Quality() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quality
}

// SubtitleIndex returns the active subtitle index, -1 for off.
func (c *Controller) SubtitleIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subtitle
}

// Descriptor returns a copy of the current descriptor, nil before the first episode.
func (c *Controller) Descriptor() *source.StreamDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desc.Clone()
}

// Preferences returns the preference snapshot.
func (c *Controller) Preferences() prefs.PlayerPreferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefs
}

// UpdatePreferences mutates the snapshot in one turn and writes it through to the store.
func (c *Controller) UpdatePreferences(mutate func(*prefs.PlayerPreferences)) prefs.PlayerPreferences {
	var p prefs.PlayerPreferences
	c.turn(func() {
		mutate(&c.prefs)
		p = c.prefs
		if c.deps.Prefs != nil {
			c.deps.Prefs.Save(p)
		}
	})
	return p
}

// Close tears down the manifest client, watchdog and subtitle resources.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen.Add(1)
	c.teardownLocked()
	c.cancel()
	if c.deps.Subtitles != nil {
		return c.deps.Subtitles.Close()
	}
	return nil
}

// turn runs fn under the lock and notifies subscribers afterwards.
func (c *Controller) turn(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	subs := lo.Values(c.subscribers)
	c.mu.Unlock()

	for _, s := range subs {
		s(snap)
	}
}

func (c *Controller) post(ev Event) {
	c.deps.Scheduler.Post(func() {
		c.Dispatch(ev)
	})
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.snap
	s.State = c.state
	s.Levels = append([]hls.Level(nil), c.levels...)
	return s
}

func (c *Controller) resolveSubtitle() int {
	if c.prefs.SubtitleLang == prefs.SubtitleOff {
		return -1
	}
	return c.desc.SubtitleIndex(c.prefs.SubtitleLang)
}
