package tui

import (
	"testing"

	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/source"
	. "github.com/smartystreets/goconvey/convey"
)

func TestListItem(t *testing.T) {
	Convey("Given menu items", t, func() {
		Convey("Auto quality and subtitles off have fixed titles", func() {
			So((&listItem{internal: &qualityOption{index: hls.AutoLevel}}).Title(), ShouldEqual, "Auto")
			So((&listItem{internal: &subtitleOption{index: -1}}).Title(), ShouldEqual, "Off")
		})

		Convey("A subtitle track is titled by its label", func() {
			item := &listItem{internal: &subtitleOption{index: 0, track: source.SubtitleTrack{Label: "English", URL: "https://cdn/en.vtt"}}}
			So(item.Title(), ShouldEqual, "English")
			So(item.FilterValue(), ShouldEqual, "English")
		})

		Convey("An episode is filtered by name", func() {
			item := &listItem{internal: &source.Episode{ID: "a", Name: "Pilot", Number: 1}}
			So(item.FilterValue(), ShouldEqual, "Pilot")
			So(item.Description(), ShouldContainSubstring, "Episode 1")
		})

		Convey("A marked item carries the mark after its title", func() {
			item := &listItem{internal: &subtitleOption{index: -1}, marked: true}
			So(item.Title(), ShouldStartWith, "Off ")
		})
	})
}
