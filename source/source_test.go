package source

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const sample = `{
	"sources": [
		{"url": "https://cdn.example/a.m3u8", "type": "hls", "isM3U8": true},
		{"url": "", "type": "mp4"},
		{"url": "https://cdn.example/b.mp4", "type": "mp4", "isM3U8": false}
	],
	"subtitles": [
		{"lang": "English", "url": "https://cdn.example/en.vtt"},
		{"lang": "Spanish", "url": ""}
	],
	"intro": {"start": 30, "end": 110},
	"outro": {"start": 1300, "end": 1200},
	"headers": {"Referer": "https://origin.example/"}
}`

func TestStreamDescriptor(t *testing.T) {
	Convey("Given a provider descriptor document", t, func() {
		var d StreamDescriptor
		So(json.Unmarshal([]byte(sample), &d), ShouldBeNil)

		Convey("Empty URLs are dropped", func() {
			So(d.Sources, ShouldHaveLength, 2)
			So(d.Subtitles, ShouldHaveLength, 1)
		})

		Convey("Valid ranges become present options and malformed ones are dropped", func() {
			intro, ok := d.Intro.Get()
			So(ok, ShouldBeTrue)
			So(intro, ShouldResemble, Range{Start: 30, End: 110})
			So(d.Outro.IsPresent(), ShouldBeFalse)
		})

		Convey("Subtitle lookup is exact", func() {
			So(d.SubtitleIndex("English"), ShouldEqual, 0)
			So(d.SubtitleIndex("english"), ShouldEqual, -1)
			So(d.SubtitleIndex("Spanish"), ShouldEqual, -1)
		})

		Convey("Clone is independent of the original", func() {
			c := d.Clone()
			c.Sources[0].URL = "changed"
			c.Headers["Referer"] = "changed"
			So(d.Sources[0].URL, ShouldEqual, "https://cdn.example/a.m3u8")
			So(d.Headers["Referer"], ShouldEqual, "https://origin.example/")
		})
	})
}

func TestRange(t *testing.T) {
	Convey("Range bounds are inclusive", t, func() {
		r := Range{Start: 10, End: 20}
		So(r.Contains(10), ShouldBeTrue)
		So(r.Contains(20), ShouldBeTrue)
		So(r.Contains(9.99), ShouldBeFalse)
		So(r.Contains(20.01), ShouldBeFalse)
	})
}

func TestLooksAdaptive(t *testing.T) {
	Convey("Manifest detection ignores query strings", t, func() {
		So(LooksAdaptive("https://x/master.m3u8?token=1"), ShouldBeTrue)
		So(LooksAdaptive("https://x/video.mp4"), ShouldBeFalse)
	})
}

func TestAdjacency(t *testing.T) {
	Convey("Given three episodes", t, func() {
		eps := []Episode{{ID: "1", Number: 1}, {ID: "2", Number: 2}, {ID: "3", Number: 3}}
		var opened string
		open := func(e Episode) { opened = e.ID }

		Convey("The first has no previous", func() {
			a := AdjacencyOf(eps, 0, open)
			So(a.HasPrevious, ShouldBeFalse)
			So(a.HasNext, ShouldBeTrue)
			a.OnNext()
			So(opened, ShouldEqual, "2")
		})

		Convey("The last has no next", func() {
			a := AdjacencyOf(eps, 2, open)
			So(a.HasNext, ShouldBeFalse)
			So(a.OnNext, ShouldBeNil)
			a.OnPrevious()
			So(opened, ShouldEqual, "2")
		})
	})
}

func TestDescriptorSchema(t *testing.T) {
	Convey("The descriptor schema lists the wire fields providers return", t, func() {
		schema := DescriptorSchema()
		for _, name := range []string{"sources", "subtitles", "intro", "outro", "headers"} {
			_, ok := schema.Properties.Get(name)
			So(ok, ShouldBeTrue)
		}
		So(schema.Required, ShouldNotContain, "intro")
		So(schema.Required, ShouldContain, "sources")

		out, err := json.Marshal(schema)
		So(err, ShouldBeNil)
		So(string(out), ShouldContainSubstring, `"isM3U8"`)
		So(string(out), ShouldContainSubstring, `"lang"`)
	})
}
