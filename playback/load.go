package playback

import (
	"errors"

	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/player"
	"github.com/anisan-cli/anistream/resolver"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/subtitle"
	"github.com/anisan-cli/anistream/util"
	"github.com/samber/mo"
)

// loadSourceLocked supersedes the previous load and binds src to the surface.
func (c *Controller) loadSourceLocked(src source.Source) {
	gen := c.gen.Add(1)
	c.teardownLocked()

	c.active = mo.Some(src)
	c.levels = nil
	c.recovered = false
	c.ready = false
	c.manifestURL = ""
	c.setState(Loading)
	c.snap.Loading = true
	c.snap.Error = ""
	c.snap.Playing = false
	c.snap.CurrentTime = 0
	c.snap.BufferedPct = 0
	c.snap.Source = src.URL
	c.snap.Quality = c.quality
	if !src.IsAdaptiveManifest || !c.cfg.ManifestClient {
		c.snap.Quality = hls.AutoLevel
	}

	// The previous media keeps reporting until it is stopped.
	c.unmountLocked()

	c.watchdog = c.deps.Clock.AfterFunc(c.cfg.LoadTimeout, func() {
		c.post(WatchdogFired{Stamp{Gen: gen}})
	})

	if err := c.deps.Surface.SetBufferLimits(c.cfg.HLS.MaxBufferLength, c.cfg.HLS.BackBufferLength); err != nil {
		log.Warnf("set buffer limits: %v", err)
	}

	headers := c.headers()
	log.Infow("loading source", log.Fields{"url": src.URL, "adaptive": src.IsAdaptiveManifest, "generation": gen})

	switch {
	case src.IsAdaptiveManifest && c.cfg.ManifestClient:
		c.manifestURL = c.deps.Gateway.ManifestURL(src.URL, headers)
		client := hls.New(c.deps.Doer, c.cfg.HLS, nil, func(ev hls.Event) {
			if mapped := Classify(gen, ev); mapped != nil {
				c.post(mapped)
			}
		})
		client.Attach(c.deps.Surface)
		client.SetStartLevel(c.quality)
		c.client = client

		ctx, target := c.ctx, c.manifestURL
		c.deps.Scheduler.Go(func() {
			if err := client.Load(ctx, target); err != nil && !errors.Is(err, hls.ErrDestroyed) {
				log.Debugf("manifest client: %v", err)
			}
		})
	case src.IsAdaptiveManifest && c.deps.Surface.SupportsNativeAdaptive():
		c.loadSurfaceLocked(gen, c.deps.Gateway.ManifestURL(src.URL, headers))
	default:
		c.loadSurfaceLocked(gen, c.deps.Gateway.StreamURL(src.URL, headers))
	}
}

func (c *Controller) loadSurfaceLocked(gen uint64, target string) {
	if err := c.mountLocked(gen, target); err != nil {
		c.handleLocked(FatalError{Stamp: Stamp{Gen: gen}, Kind: KindSurface, Err: err})
		return
	}
	c.handleLocked(SourceLoaded{Stamp: Stamp{Gen: gen}})
}

// mountLocked hands target to the surface. Surface events count for gen from here on.
func (c *Controller) mountLocked(gen uint64, target string) error {
	c.surfaceGen.Store(gen)
	if err := c.deps.Surface.Load(target, c.title); err != nil {
		return err
	}
	c.mounted = true
	return nil
}

// unmountLocked stops the media on the surface, if any.
func (c *Controller) unmountLocked() {
	if !c.mounted {
		return
	}
	c.mounted = false
	if err := c.deps.Surface.Unload(); err != nil {
		log.Warnf("unload surface: %v", err)
	}
}

// teardownLocked stops everything tied to the previous load.
func (c *Controller) teardownLocked() {
	if c.client != nil {
		c.client.Destroy()
		c.client = nil
	}
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
	if c.deps.Subtitles != nil {
		c.deps.Subtitles.Invalidate()
	}
}

func (c *Controller) handleLocked(ev Event) {
	switch e := ev.(type) {
	case SourceLoaded:
		// Adaptive sources reach the surface only once the manifest client accepted them.
		if c.client != nil && c.manifestURL != "" {
			if err := c.mountLocked(e.Gen, c.manifestURL); err != nil {
				c.failoverLocked(KindSurface, err)
			}
		}
	case LevelsParsed:
		c.levels = append([]hls.Level(nil), e.Levels...)
		if c.quality < hls.AutoLevel || c.quality >= len(c.levels) {
			c.quality = hls.AutoLevel
		}
		c.snap.Quality = c.quality
	case FatalError:
		if e.Kind == KindMedia && !c.recovered && c.client != nil {
			c.recovered = true
			log.Warnw("recovering media error", log.Fields{"error": e.Err})
			client, ctx := c.client, c.ctx
			c.deps.Scheduler.Go(func() {
				_ = client.RecoverMediaError(ctx)
			})
			return
		}
		c.failoverLocked(e.Kind, e.Err)
	case NonFatalError:
		log.Warnw("non-fatal playback error", log.Fields{"kind": e.Kind.String(), "error": e.Err})
	case SurfaceReady:
		c.onReadyLocked()
	case TimeUpdate:
		c.snap.CurrentTime = e.Position
	case DurationUpdate:
		c.snap.Duration = e.Duration
	case PlayState:
		c.snap.Playing = e.Playing
		switch c.state {
		case Ready, Playing, Paused:
			if e.Playing {
				c.setState(Playing)
			} else {
				c.setState(Paused)
			}
		}
	case BufferUpdate:
		if c.snap.Duration > 0 {
			c.snap.BufferedPct = util.Clamp(e.BufferedUntil/c.snap.Duration*100, 0, 100)
		}
	case Ended:
		c.snap.Playing = false
		if c.state == Playing {
			c.setState(Paused)
		}
	case WatchdogFired:
		if c.snap.Loading {
			log.Warnw("load watchdog fired", log.Fields{"source": c.snap.Source})
			c.snap.Loading = false
		}
	}
}

func (c *Controller) onReadyLocked() {
	if c.ready {
		return
	}
	c.ready = true
	c.snap.Loading = false
	c.snap.Notice = ""
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
	if c.snap.Playing {
		c.setState(Playing)
	} else {
		c.setState(Ready)
	}

	s := c.deps.Surface
	p := c.prefs
	warn := func(what string, err error) {
		if err != nil {
			log.Warnf("apply %s: %v", what, err)
		}
	}
	warn("volume", s.SetVolume(p.Volume))
	warn("mute", s.SetMuted(p.Muted))
	warn("rate", s.SetSpeed(p.PlaybackRate))
	if c.desc != nil {
		warn("chapters", s.SetChapters(player.Chapters(c.desc.Intro, c.desc.Outro)))
	}
	if c.deps.Subtitles != nil {
		warn("subtitle style", c.deps.Subtitles.ApplyStyle(p.SubtitleStyle))
	}

	c.scheduleSubtitleLocked()
}

// scheduleSubtitleLocked (re)activates the selected subtitle for the current generation.
func (c *Controller) scheduleSubtitleLocked() {
	if c.deps.Subtitles == nil || c.desc == nil {
		return
	}

	track := mo.None[source.SubtitleTrack]()
	if c.subtitle >= 0 && c.subtitle < len(c.desc.Subtitles) {
		track = mo.Some(c.desc.Subtitles[c.subtitle])
	}

	gen, ctx, headers, pipeline := c.gen.Load(), c.ctx, c.headers(), c.deps.Subtitles
	c.deps.Scheduler.Go(func() {
		err := pipeline.ActivateIf(ctx, track, headers, func() bool {
			return c.gen.Load() == gen
		})
		if err != nil && !errors.Is(err, subtitle.ErrSuperseded) {
			log.Warnf("subtitle activation: %v", err)
		}
	})
}

// failoverLocked marks the active source failed and moves to the next ranked one.
func (c *Controller) failoverLocked(kind ErrorKind, err error) {
	src, ok := c.active.Get()
	if !ok {
		return
	}

	c.setState(Failing)
	c.failed.Add(src.URL)
	log.Warnw("source failed", log.Fields{"url": src.URL, "kind": kind.String(), "error": err})

	var sources []source.Source
	if c.desc != nil {
		sources = c.desc.Sources
	}
	ranked := resolver.Rank(sources, c.failed)
	if len(ranked) == 0 {
		c.terminalLocked()
		return
	}

	c.snap.Notice = noticeSwitching
	c.loadSourceLocked(ranked[0])
}

func (c *Controller) terminalLocked() {
	c.gen.Add(1)
	c.teardownLocked()
	c.setState(Terminal)
	c.levels = nil
	c.snap.Loading = false
	c.snap.Playing = false
	c.snap.Notice = ""
	c.snap.Error = ErrNoSourcesAvailable.Error()

	c.mounted = false
	if err := c.deps.Surface.Unload(); err != nil {
		log.Warnf("unload surface: %v", err)
	}
	if c.deps.Subtitles != nil {
		c.deps.Subtitles.Release()
	}
	log.Error(ErrNoSourcesAvailable)
}

func (c *Controller) setState(s State) {
	if c.state != s {
		log.Debugf("playback: %s -> %s", c.state, s)
		c.state = s
	}
}

func (c *Controller) headers() map[string]string {
	if c.desc == nil {
		return nil
	}
	return c.desc.Headers
}
