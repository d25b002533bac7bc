package hls

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anisan-cli/anistream/network"
	. "github.com/smartystreets/goconvey/convey"
)

const master = `#EXTM3U
#EXT-X-VERSION:4
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aud",NAME="en",URI="audio/en.m3u8"
#EXT-X-STREAM-INF:BANDWIDTH=2800000,RESOLUTION=1280x720,CODECS="avc1.4d401f,mp4a.40.2"
720/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
360/index.m3u8
`

const media = `#EXTM3U
#EXT-X-TARGETDURATION:6
#EXT-X-KEY:METHOD=AES-128,URI="key.bin"
#EXTINF:6.000,
seg0.ts
#EXTINF:4.5,
https://cdn.example.com/seg1.ts
#EXT-X-ENDLIST
`

func mustURL(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func TestParse(t *testing.T) {
	Convey("Given a master playlist", t, func() {
		pl, err := Parse([]byte(master), mustURL("https://host/show/master.m3u8"))
		So(err, ShouldBeNil)

		Convey("Levels are sorted by bitrate with resolved URLs", func() {
			So(pl.Master, ShouldBeTrue)
			So(pl.Levels, ShouldHaveLength, 2)
			So(pl.Levels[0], ShouldResemble, Level{Index: 0, Width: 640, Height: 360, Bitrate: 800000, URL: "https://host/show/360/index.m3u8"})
			So(pl.Levels[1].Index, ShouldEqual, 1)
			So(pl.Levels[1].Height, ShouldEqual, 720)
			So(pl.Levels[1].String(), ShouldEqual, "720p")
		})
	})

	Convey("Given a media playlist", t, func() {
		pl, err := Parse([]byte(media), mustURL("https://host/show/360/index.m3u8"))
		So(err, ShouldBeNil)

		Convey("Segments and totals are decoded", func() {
			So(pl.Master, ShouldBeFalse)
			So(pl.Levels, ShouldBeEmpty)
			So(pl.Segments, ShouldHaveLength, 2)
			So(pl.Segments[0].URL, ShouldEqual, "https://host/show/360/seg0.ts")
			So(pl.Segments[1].URL, ShouldEqual, "https://cdn.example.com/seg1.ts")
			So(pl.Duration(), ShouldEqual, 10.5)
			So(pl.TargetDuration, ShouldEqual, 6)
			So(pl.Ended, ShouldBeTrue)
		})
	})

	Convey("A payload without the header is rejected", t, func() {
		_, err := Parse([]byte("<html></html>"), nil)
		So(errors.Is(err, ErrNotPlaylist), ShouldBeTrue)
	})

	Convey("Attribute lists keep commas inside quotes", t, func() {
		attrs := ParseAttributes(`BANDWIDTH=1,CODECS="a,b",RESOLUTION=1x2`)
		So(attrs["CODECS"], ShouldEqual, "a,b")
		So(attrs["RESOLUTION"], ShouldEqual, "1x2")
	})
}

func TestRewrite(t *testing.T) {
	tag := func(abs string, kind URIKind) string {
		if kind == KindPlaylist {
			return "P(" + abs + ")"
		}
		return "R(" + abs + ")"
	}

	Convey("Nested playlists of a master playlist are rewritten as playlists", t, func() {
		out := string(Rewrite([]byte(master), mustURL("https://host/m.m3u8"), tag))
		So(out, ShouldContainSubstring, `URI="P(https://host/audio/en.m3u8)"`)
		So(out, ShouldContainSubstring, "\nP(https://host/720/index.m3u8)\n")
		So(out, ShouldContainSubstring, `CODECS="avc1.4d401f,mp4a.40.2"`)
	})

	Convey("Segments and keys of a media playlist are rewritten as resources", t, func() {
		out := string(Rewrite([]byte(media), mustURL("https://host/a/i.m3u8"), tag))
		So(out, ShouldContainSubstring, `URI="R(https://host/a/key.bin)"`)
		So(out, ShouldContainSubstring, "\nR(https://host/a/seg0.ts)\n")
		So(out, ShouldContainSubstring, "#EXTINF:6.000,\n")
	})
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

type sink struct {
	calls    int
	bitrates []int
}

func (s *sink) SetVariantBitrate(b int) error {
	s.calls++
	s.bitrates = append(s.bitrates, b)
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.RequestTimeout = time.Second
	return cfg
}

func TestClient(t *testing.T) {
	Convey("Given an upstream serving a master playlist", t, func() {
		var hits sync.Map
		fragment := "fragment-bytes"
		mux := http.NewServeMux()
		mux.HandleFunc("/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(master))
		})
		mux.HandleFunc("/360/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Replace(media, "https://cdn.example.com/", "", 1)))
		})
		mux.HandleFunc("/360/seg0.ts", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(fragment))
		})
		mux.HandleFunc("/malformed.m3u8", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=800000\n%zz/index.m3u8\n"))
		})
		mux.HandleFunc("/broken.m3u8", func(w http.ResponseWriter, r *http.Request) {
			n, _ := hits.LoadOrStore("broken", new(int32))
			atomic.AddInt32(n.(*int32), 1)
			w.WriteHeader(http.StatusBadGateway)
		})
		mux.HandleFunc("/slow.m3u8", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		rec := &recorder{}
		c := New(network.Client, testConfig(), nil, rec.emit)
		s := &sink{}
		c.Attach(s)

		Convey("Load emits parsed levels, the level and the first fragment", func() {
			So(c.Load(context.Background(), srv.URL+"/master.m3u8"), ShouldBeNil)
			So(rec.events, ShouldHaveLength, 3)

			parsed, ok := rec.events[0].(ManifestParsed)
			So(ok, ShouldBeTrue)
			So(parsed.Levels, ShouldHaveLength, 2)

			loaded, ok := rec.events[1].(LevelLoaded)
			So(ok, ShouldBeTrue)
			So(loaded.Level, ShouldEqual, 0)

			frag, ok := rec.events[2].(FragmentLoaded)
			So(ok, ShouldBeTrue)
			So(frag.Bytes, ShouldEqual, len(fragment))

			Convey("SetLevel applies immediately and repeating it is a no-op", func() {
				before := s.calls
				So(c.SetLevel(1), ShouldBeNil)
				So(c.SetLevel(1), ShouldBeNil)
				So(c.Level(), ShouldEqual, 1)
				So(s.calls, ShouldEqual, before+1)
				So(s.bitrates[len(s.bitrates)-1], ShouldEqual, 2800000)
			})

			Convey("SetLevel rejects out of range indexes", func() {
				So(c.SetLevel(2), ShouldNotBeNil)
				So(c.SetLevel(-2), ShouldNotBeNil)
				So(c.Level(), ShouldEqual, AutoLevel)
			})
		})

		Convey("A failing manifest is retried then reported fatal", func() {
			err := c.Load(context.Background(), srv.URL+"/broken.m3u8")
			var hlsErr *Error
			So(errors.As(err, &hlsErr), ShouldBeTrue)
			So(hlsErr.Fatal, ShouldBeTrue)
			So(hlsErr.Type, ShouldEqual, NetworkError)
			So(hlsErr.Details, ShouldEqual, ManifestLoadError)

			n, _ := hits.Load("broken")
			So(atomic.LoadInt32(n.(*int32)), ShouldEqual, int32(testConfig().ManifestRetries+1))
			So(rec.last(), ShouldEqual, hlsErr)
		})

		Convey("A level URI that does not parse is a fatal level load error", func() {
			err := c.Load(context.Background(), srv.URL+"/malformed.m3u8")
			var hlsErr *Error
			So(errors.As(err, &hlsErr), ShouldBeTrue)
			So(hlsErr.Fatal, ShouldBeTrue)
			So(hlsErr.Details, ShouldEqual, LevelLoadError)
			So(hlsErr.URL, ShouldEqual, "%zz/index.m3u8")
			So(rec.last(), ShouldEqual, hlsErr)
		})

		Convey("A request timeout is reported as a timeout", func() {
			cfg := testConfig()
			cfg.ManifestRetries = 0
			cfg.RequestTimeout = 50 * time.Millisecond
			c := New(network.Client, cfg, nil, rec.emit)

			err := c.Load(context.Background(), srv.URL+"/slow.m3u8")
			var hlsErr *Error
			So(errors.As(err, &hlsErr), ShouldBeTrue)
			So(hlsErr.Details, ShouldEqual, ManifestLoadTimeout)
		})

		Convey("A destroyed client emits nothing and refuses to load", func() {
			c.Destroy()
			c.Destroy()
			So(errors.Is(c.Load(context.Background(), srv.URL+"/master.m3u8"), ErrDestroyed), ShouldBeTrue)
			So(rec.events, ShouldBeEmpty)
		})

		Convey("An empty fragment is a fatal media error that can be retried", func() {
			fragment = ""
			err := c.Load(context.Background(), srv.URL+"/master.m3u8")
			var hlsErr *Error
			So(errors.As(err, &hlsErr), ShouldBeTrue)
			So(hlsErr.Type, ShouldEqual, MediaError)

			fragment = "recovered"
			So(c.RecoverMediaError(context.Background()), ShouldBeNil)
			_, ok := rec.last().(FragmentLoaded)
			So(ok, ShouldBeTrue)
		})
	})

	Convey("Backoff doubles and is capped at eight times the base delay", t, func() {
		cfg := Config{RetryDelay: 100 * time.Millisecond}
		So(cfg.Backoff(0), ShouldEqual, 100*time.Millisecond)
		So(cfg.Backoff(1), ShouldEqual, 200*time.Millisecond)
		So(cfg.Backoff(3), ShouldEqual, 800*time.Millisecond)
		So(cfg.Backoff(10), ShouldEqual, 800*time.Millisecond)
	})
}
