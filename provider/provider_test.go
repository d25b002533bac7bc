package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/anisan-cli/anistream/aniskip"
	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/network"
	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/where"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

const single = `{
	"sources": [{"url": "https://cdn.test/a.m3u8", "type": "hls", "isM3U8": true}],
	"subtitles": [{"lang": "English", "url": "https://cdn.test/en.vtt"}],
	"intro": {"start": 0, "end": 85},
	"headers": {"Referer": "https://site.test/"}
}`

const series = `{
	"title": "Show",
	"malId": 1535,
	"episodes": [
		{"id": "a", "name": "One", "descriptor": {"sources": [{"url": "https://cdn.test/1.mp4"}]}},
		{"id": "b", "name": "Two"}
	]
}`

func TestGet(t *testing.T) {
	Convey("When trying to get an invalid provider", t, func() {
		_, ok := Get("kek")
		Convey("Then ok should be false", func() {
			So(ok, ShouldBeFalse)
		})
	})

	Convey("When a script is installed", t, func() {
		path := filepath.Join(where.Scripts(), "site.lua")
		So(filesystem.API().WriteFile(path, []byte("-- script"), 0o644), ShouldBeNil)

		Convey("Then it is found by name", func() {
			got, ok := Get("site")
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, path)
		})
	})
}

func TestDocument(t *testing.T) {
	ctx := context.Background()

	Convey("Given a single descriptor document", t, func() {
		So(filesystem.API().WriteFile("/docs/movie.json", []byte(single), 0o644), ShouldBeNil)
		p, err := Open("/docs/movie.json")
		So(err, ShouldBeNil)

		Convey("It is one episode named after the file", func() {
			So(p.Name(), ShouldEqual, "movie")
			episodes, err := p.Episodes(ctx)
			So(err, ShouldBeNil)
			So(episodes, ShouldHaveLength, 1)

			desc, err := p.Describe(ctx, episodes[0])
			So(err, ShouldBeNil)
			So(desc.Sources[0].IsAdaptiveManifest, ShouldBeTrue)
			So(desc.Subtitles[0].Label, ShouldEqual, "English")
			So(desc.Intro.MustGet().End, ShouldEqual, 85)
			So(desc.Headers["Referer"], ShouldEqual, "https://site.test/")
		})
	})

	Convey("Given a series document", t, func() {
		doc, err := ParseDocument("file", []byte(series))
		So(err, ShouldBeNil)

		Convey("Episodes inherit the series id and get numbers", func() {
			So(doc.Name(), ShouldEqual, "Show")
			episodes, _ := doc.Episodes(ctx)
			So(episodes, ShouldResemble, []source.Episode{
				{ID: "a", Name: "One", Number: 1, MalID: 1535},
				{ID: "b", Name: "Two", Number: 2, MalID: 1535},
			})
		})

		Convey("Describing returns a copy", func() {
			desc, err := doc.Describe(ctx, source.Episode{ID: "a"})
			So(err, ShouldBeNil)
			desc.Sources[0].URL = "mutated"

			again, _ := doc.Describe(ctx, source.Episode{ID: "a"})
			So(again.Sources[0].URL, ShouldEqual, "https://cdn.test/1.mp4")
		})

		Convey("Missing descriptors and episodes are errors", func() {
			_, err := doc.Describe(ctx, source.Episode{ID: "b"})
			So(err, ShouldNotBeNil)
			_, err = doc.Describe(ctx, source.Episode{ID: "zzz"})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Documents without sources or episodes are rejected", t, func() {
		_, err := ParseDocument("x", []byte(`{"title": "empty"}`))
		So(err, ShouldNotBeNil)
		_, err = ParseDocument("x", []byte(`not json`))
		So(err, ShouldNotBeNil)
	})

	Convey("Unknown extensions are rejected", t, func() {
		_, err := Open("/docs/show.yaml")
		So(err, ShouldNotBeNil)
	})
}

type stub struct {
	desc *source.StreamDescriptor
}

func (s stub) Name() string { return "stub" }

func (s stub) Episodes(context.Context) ([]source.Episode, error) { return nil, nil }

func (s stub) Describe(context.Context, source.Episode) (*source.StreamDescriptor, error) {
	return s.desc.Clone(), nil
}

func TestWithSkipTimes(t *testing.T) {
	Convey("Given an AniSkip server", t, func() {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			_, _ = w.Write([]byte(`{"found":true,"results":[
				{"interval":{"start_time":60,"end_time":150},"skip_type":"op"},
				{"interval":{"start_time":1300,"end_time":1390},"skip_type":"ed"}]}`))
		}))
		defer server.Close()
		client := aniskip.New(network.Client, server.URL)
		ctx := context.Background()

		Convey("Missing ranges are filled, present ones kept", func() {
			own := source.Range{Start: 5, End: 80}
			p := WithSkipTimes(stub{desc: &source.StreamDescriptor{Intro: mo.Some(own)}}, client)

			desc, err := p.Describe(ctx, source.Episode{ID: "1", Number: 1, MalID: 1535})
			So(err, ShouldBeNil)
			So(desc.Intro.MustGet(), ShouldResemble, own)
			So(desc.Outro.MustGet(), ShouldResemble, source.Range{Start: 1300, End: 1390})
		})

		Convey("Episodes without an id are not looked up", func() {
			p := WithSkipTimes(stub{desc: &source.StreamDescriptor{}}, client)
			desc, err := p.Describe(ctx, source.Episode{ID: "1", Number: 1})
			So(err, ShouldBeNil)
			So(desc.Intro.IsAbsent(), ShouldBeTrue)
			So(calls, ShouldEqual, 0)
		})
	})
}
