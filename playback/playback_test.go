package playback

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anisan-cli/anistream/clock"
	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/kv"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/player"
	"github.com/anisan-cli/anistream/player/playertest"
	"github.com/anisan-cli/anistream/prefs"
	"github.com/anisan-cli/anistream/proxy"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/subtitle"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

var errUpstream = errors.New("upstream refused")

type harness struct {
	surface *playertest.Surface
	sched   *Manual
	clock   *clock.Fake
	store   *prefs.Store
	ctrl    *Controller
}

func newHarness(cfg Config, mutate func(*prefs.PlayerPreferences)) *harness {
	store := prefs.New(kv.NewMemoryStore())
	if mutate != nil {
		p := prefs.Defaults()
		mutate(&p)
		store.Save(p)
	}

	gateway, _ := proxy.NewGateway("")
	h := &harness{
		surface: playertest.New(),
		sched:   &Manual{},
		clock:   clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		store:   store,
	}
	h.ctrl = New(Deps{
		Surface:   h.surface,
		Gateway:   gateway,
		Prefs:     store,
		Clock:     h.clock,
		Scheduler: h.sched,
	}, WithConfig(cfg))
	return h
}

func (h *harness) fatal(kind ErrorKind) {
	h.ctrl.Dispatch(FatalError{Stamp: Stamp{Gen: h.ctrl.Generation()}, Kind: kind, Err: errUpstream})
}

func twoSources() *source.StreamDescriptor {
	return &source.StreamDescriptor{
		Sources: []source.Source{
			{URL: "https://cdn.test/a.m3u8", IsAdaptiveManifest: true},
			{URL: "https://cdn.test/b.mp4", MediaType: "video/mp4"},
		},
		Subtitles: []source.SubtitleTrack{
			{Label: "English", URL: "https://cdn.test/en.vtt"},
		},
	}
}

func TestFailover(t *testing.T) {
	Convey("Given an adaptive and a progressive source", t, func() {
		h := newHarness(DefaultConfig(), nil)
		h.ctrl.LoadEpisode(twoSources())

		Convey("The adaptive source is held back until the manifest client accepts it", func() {
			So(h.ctrl.State(), ShouldEqual, Loading)
			So(h.ctrl.Snapshot().Loading, ShouldBeTrue)
			So(h.surface.Loads(), ShouldEqual, 0)
			So(h.sched.Pending(), ShouldEqual, 1)
		})

		Convey("A fatal network error fails over to the next source", func() {
			h.fatal(KindNetwork)

			So(h.ctrl.Failed(), ShouldResemble, []string{"https://cdn.test/a.m3u8"})
			active, ok := h.ctrl.Active().Get()
			So(ok, ShouldBeTrue)
			So(active.URL, ShouldEqual, "https://cdn.test/b.mp4")
			So(h.surface.LastLoaded(), ShouldContainSubstring, "b.mp4")
			So(h.ctrl.Snapshot().Notice, ShouldEqual, noticeSwitching)

			Convey("The destroyed client of the first load emits nothing", func() {
				gen := h.ctrl.Generation()
				h.sched.Drain()
				So(h.ctrl.Generation(), ShouldEqual, gen)
				So(h.ctrl.Failed(), ShouldHaveLength, 1)
			})

			Convey("When the last source fails too, playback is terminal", func() {
				h.fatal(KindSurface)

				So(h.ctrl.State(), ShouldEqual, Terminal)
				So(h.ctrl.Ranked(), ShouldBeEmpty)
				So(h.ctrl.Failed(), ShouldHaveLength, 2)
				So(h.ctrl.Snapshot().Error, ShouldEqual, ErrNoSourcesAvailable.Error())
				So(h.ctrl.Snapshot().Loading, ShouldBeFalse)
				So(h.surface.Unloads, ShouldEqual, 1)

				Convey("Retry reloads the selected source and keeps the failures", func() {
					h.ctrl.Retry()
					So(h.ctrl.State(), ShouldEqual, Loading)
					So(h.ctrl.Failed(), ShouldHaveLength, 2)
					So(h.surface.LastLoaded(), ShouldContainSubstring, "b.mp4")
				})
			})
		})

		Convey("Events from a superseded load are dropped", func() {
			stale := h.ctrl.Generation()
			h.fatal(KindNetwork)
			h.ctrl.Dispatch(FatalError{Stamp: Stamp{Gen: stale}, Kind: KindNetwork, Err: errUpstream})

			So(h.ctrl.Failed(), ShouldHaveLength, 1)
			So(h.ctrl.State(), ShouldEqual, Loading)
		})

		Convey("A media error is recovered once before failing over", func() {
			h.fatal(KindMedia)
			So(h.ctrl.Failed(), ShouldBeEmpty)
			So(h.sched.Pending(), ShouldEqual, 2)

			h.fatal(KindMedia)
			So(h.ctrl.Failed(), ShouldHaveLength, 1)
		})

		Convey("Loading a new episode clears the failures", func() {
			h.fatal(KindNetwork)
			h.ctrl.LoadEpisode(twoSources())
			So(h.ctrl.Failed(), ShouldBeEmpty)
			So(h.ctrl.Ranked(), ShouldHaveLength, 2)
		})
	})

	Convey("Given an episode without sources", t, func() {
		h := newHarness(DefaultConfig(), nil)
		h.ctrl.LoadEpisode(&source.StreamDescriptor{})

		Convey("Playback is terminal immediately", func() {
			So(h.ctrl.State(), ShouldEqual, Terminal)
			So(h.ctrl.Snapshot().Error, ShouldNotBeEmpty)
		})
	})

	Convey("Given a surface that refuses every load", t, func() {
		h := newHarness(DefaultConfig(), nil)
		h.surface.FailLoad = true
		h.ctrl.LoadEpisode(&source.StreamDescriptor{Sources: []source.Source{
			{URL: "https://cdn.test/a.mp4"},
			{URL: "https://cdn.test/b.mp4"},
		}})

		Convey("Every source is tried in order", func() {
			So(h.ctrl.Failed(), ShouldResemble, []string{"https://cdn.test/a.mp4", "https://cdn.test/b.mp4"})
			So(h.ctrl.State(), ShouldEqual, Terminal)
		})
	})

	Convey("Given a preferred quality level", t, func() {
		h := newHarness(DefaultConfig(), func(p *prefs.PlayerPreferences) { p.Quality = 1 })
		h.ctrl.LoadEpisode(twoSources())
		So(h.ctrl.Snapshot().Quality, ShouldEqual, 1)

		Convey("Failing over to a progressive source reports automatic quality", func() {
			h.fatal(KindNetwork)

			snap := h.ctrl.Snapshot()
			So(snap.Levels, ShouldBeEmpty)
			So(snap.Quality, ShouldEqual, hls.AutoLevel)
		})
	})
}

func TestSubtitleResolution(t *testing.T) {
	Convey("Given a persisted subtitle label", t, func() {
		Convey("A label without a matching track resolves to off", func() {
			h := newHarness(DefaultConfig(), func(p *prefs.PlayerPreferences) {
				p.SubtitleLang = "Spanish"
			})
			h.ctrl.LoadEpisode(twoSources())
			So(h.ctrl.SubtitleIndex(), ShouldEqual, -1)
		})

		Convey("A matching label selects its track", func() {
			h := newHarness(DefaultConfig(), func(p *prefs.PlayerPreferences) {
				p.SubtitleLang = "English"
			})
			h.ctrl.LoadEpisode(twoSources())
			So(h.ctrl.SubtitleIndex(), ShouldEqual, 0)
			So(h.ctrl.Snapshot().Subtitle, ShouldEqual, 0)
		})

		Convey("Selecting an unknown index is rejected", func() {
			h := newHarness(DefaultConfig(), nil)
			h.ctrl.LoadEpisode(twoSources())
			So(h.ctrl.SelectSubtitle(3), ShouldNotBeNil)
			So(h.ctrl.SelectSubtitle(-1), ShouldBeNil)
		})
	})
}

func TestWatchdog(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ManifestClient = false

	Convey("Given a source that never becomes ready", t, func() {
		h := newHarness(cfg, nil)
		h.ctrl.LoadEpisode(twoSources())
		So(h.surface.LastLoaded(), ShouldContainSubstring, "a.m3u8")

		Convey("The watchdog clears the loading indicator without failing over", func() {
			h.clock.Advance(cfg.LoadTimeout)
			h.sched.Drain()

			So(h.ctrl.Snapshot().Loading, ShouldBeFalse)
			So(h.ctrl.State(), ShouldEqual, Loading)
			So(h.ctrl.Failed(), ShouldBeEmpty)
		})

		Convey("Readiness stops the watchdog and applies preferences", func() {
			h.ctrl.SurfaceHandler()(player.Ready{})
			h.sched.Drain()

			So(h.ctrl.State(), ShouldEqual, Ready)
			So(h.ctrl.Snapshot().Loading, ShouldBeFalse)
			So(h.clock.Pending(), ShouldEqual, 0)
			So(h.surface.Volume, ShouldEqual, 1)
			So(h.surface.Speed, ShouldEqual, 1)

			Convey("Surface events update the snapshot", func() {
				handler := h.ctrl.SurfaceHandler()
				handler(player.DurationChanged{Duration: 200})
				handler(player.TimeChanged{Position: 50})
				handler(player.BufferChanged{BufferedUntil: 100})
				handler(player.PauseChanged{Paused: false})
				h.sched.Drain()

				snap := h.ctrl.Snapshot()
				So(snap.Duration, ShouldEqual, 200)
				So(snap.CurrentTime, ShouldEqual, 50)
				So(snap.BufferedPct, ShouldEqual, 50)
				So(snap.Playing, ShouldBeTrue)
				So(h.ctrl.State(), ShouldEqual, Playing)
			})
		})
	})
}

func TestSubscribe(t *testing.T) {
	Convey("Given a subscriber", t, func() {
		h := newHarness(DefaultConfig(), nil)
		var got []Snapshot
		unsubscribe := h.ctrl.Subscribe(func(s Snapshot) {
			got = append(got, s)
		})

		Convey("It sees a snapshot after every turn until unsubscribed", func() {
			h.ctrl.LoadEpisode(twoSources())
			So(got, ShouldHaveLength, 1)
			So(got[0].Loading, ShouldBeTrue)
			So(got[0].State, ShouldEqual, Loading)

			unsubscribe()
			h.fatal(KindNetwork)
			So(got, ShouldHaveLength, 1)
		})
	})
}

const (
	masterBody = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
360/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2800000,RESOLUTION=1280x720
720/index.m3u8
`
	levelBody = `#EXTM3U
#EXT-X-TARGETDURATION:6
#EXTINF:6.0,
seg0.ts
#EXT-X-ENDLIST
`
	subtitleBody = "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHello\n"
)

func TestAdaptiveLoad(t *testing.T) {
	Convey("Given an adaptive source behind the gateway", t, func() {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/show/master.m3u8":
				_, _ = w.Write([]byte(masterBody))
			case "/show/360/index.m3u8", "/show/720/index.m3u8":
				_, _ = w.Write([]byte(levelBody))
			case "/show/360/seg0.ts", "/show/720/seg0.ts":
				_, _ = w.Write([]byte("fragment"))
			case "/show/en.vtt":
				_, _ = w.Write([]byte(subtitleBody))
			default:
				http.NotFound(w, r)
			}
		}))
		defer upstream.Close()

		gw := httptest.NewServer(proxy.NewServer(network.Client).Handler())
		defer gw.Close()
		gateway, _ := proxy.NewGateway(gw.URL)

		store := prefs.New(kv.NewMemoryStore())
		p := prefs.Defaults()
		p.SubtitleLang = "English"
		p.Quality = 7
		store.Save(p)

		surface := playertest.New()
		sched := &Manual{}
		pipeline := subtitle.NewPipeline(surface, gateway, network.Client, subtitle.NewArena("/staged"))
		ctrl := New(Deps{
			Surface:   surface,
			Gateway:   gateway,
			Doer:      network.Client,
			Subtitles: pipeline,
			Prefs:     store,
			Clock:     clock.NewFake(time.Now()),
			Scheduler: sched,
		})
		defer ctrl.Close()

		ctrl.LoadEpisode(&source.StreamDescriptor{
			Sources:   []source.Source{{URL: upstream.URL + "/show/master.m3u8", IsAdaptiveManifest: true}},
			Subtitles: []source.SubtitleTrack{{Label: "English", URL: upstream.URL + "/show/en.vtt"}},
		})
		sched.Drain()

		Convey("The surface gets the gateway manifest once the client accepted it", func() {
			So(surface.Loads(), ShouldEqual, 1)
			So(surface.LastLoaded(), ShouldStartWith, gw.URL)
			So(ctrl.Levels(), ShouldHaveLength, 2)
			So(ctrl.Quality(), ShouldEqual, hls.AutoLevel)
			So(ctrl.Failed(), ShouldBeEmpty)
		})

		Convey("Selecting a level is applied once without reloading", func() {
			So(ctrl.SetQuality(1), ShouldBeNil)
			applied := len(surface.Bitrates)
			So(surface.Bitrates[applied-1], ShouldEqual, 2800000)

			So(ctrl.SetQuality(1), ShouldBeNil)
			So(surface.Bitrates, ShouldHaveLength, applied)
			So(surface.Loads(), ShouldEqual, 1)
			So(ctrl.Quality(), ShouldEqual, 1)

			So(ctrl.SetQuality(2), ShouldNotBeNil)
		})

		Convey("Readiness attaches the preferred subtitle", func() {
			ctrl.SurfaceHandler()(player.Ready{})
			sched.Drain()

			tracks := surface.AttachedTracks()
			So(tracks, ShouldHaveLength, 1)
			So(tracks[0].Label, ShouldEqual, "English")
			So(surface.Styles, ShouldEqual, 1)

			Convey("Turning subtitles off detaches it", func() {
				So(ctrl.SelectSubtitle(-1), ShouldBeNil)
				sched.Drain()
				So(surface.AttachedTracks(), ShouldBeEmpty)
			})
		})
	})
}

func TestEpisodeSwitch(t *testing.T) {
	Convey("Given a progressive episode playing at 700s", t, func() {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/show/master.m3u8":
				_, _ = w.Write([]byte(masterBody))
			case "/show/360/index.m3u8", "/show/720/index.m3u8":
				_, _ = w.Write([]byte(levelBody))
			case "/show/360/seg0.ts", "/show/720/seg0.ts":
				_, _ = w.Write([]byte("fragment"))
			default:
				http.NotFound(w, r)
			}
		}))
		defer upstream.Close()

		gw := httptest.NewServer(proxy.NewServer(network.Client).Handler())
		defer gw.Close()
		gateway, _ := proxy.NewGateway(gw.URL)

		surface := playertest.New()
		sched := &Manual{}
		ctrl := New(Deps{
			Surface:   surface,
			Gateway:   gateway,
			Doer:      network.Client,
			Clock:     clock.NewFake(time.Now()),
			Scheduler: sched,
		})
		defer ctrl.Close()
		handler := ctrl.SurfaceHandler()

		ctrl.LoadEpisode(&source.StreamDescriptor{
			Sources: []source.Source{{URL: upstream.URL + "/show/ep1.mp4", MediaType: "video/mp4"}},
		})
		handler(player.Ready{})
		handler(player.TimeChanged{Position: 700})
		sched.Drain()
		So(ctrl.State(), ShouldEqual, Ready)
		So(ctrl.Snapshot().CurrentTime, ShouldEqual, 700)

		Convey("When an adaptive episode replaces it", func() {
			ctrl.LoadEpisode(&source.StreamDescriptor{
				Sources: []source.Source{{URL: upstream.URL + "/show/master.m3u8", IsAdaptiveManifest: true}},
			})

			Convey("The previous media is stopped before the manifest loads", func() {
				So(surface.Unloads, ShouldEqual, 1)
				So(surface.Loads(), ShouldEqual, 1)
				So(ctrl.Snapshot().CurrentTime, ShouldEqual, 0)
			})

			Convey("Late events of the previous media do not touch the new load", func() {
				handler(player.TimeChanged{Position: 701})
				handler(player.Ready{})
				sched.Drain()

				So(surface.Loads(), ShouldEqual, 2)
				So(surface.LastLoaded(), ShouldStartWith, gw.URL)
				So(ctrl.State(), ShouldEqual, Loading)
				So(ctrl.Snapshot().Loading, ShouldBeTrue)
				So(ctrl.Snapshot().CurrentTime, ShouldEqual, 0)

				Convey("Readiness of the new media is accepted", func() {
					handler(player.Ready{})
					sched.Drain()
					So(ctrl.State(), ShouldEqual, Ready)
				})
			})
		})
	})
}
