package tui

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHistory(t *testing.T) {
	Convey("Given an empty history", t, func() {
		var h history

		Convey("Back has nowhere to go", func() {
			_, ok := h.pop()
			So(ok, ShouldBeFalse)
		})

		Convey("Transient states are not recorded", func() {
			h.push(loadingState)
			h.push(episodesState)
			h.push(errorState)
			h.push(qualityState)

			s, ok := h.pop()
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, qualityState)
			s, _ = h.pop()
			So(s, ShouldEqual, episodesState)
			_, ok = h.pop()
			So(ok, ShouldBeFalse)
		})

		Convey("Opening an episode leaves only the episode list behind", func() {
			h.push(episodesState)
			h.push(subtitleState)
			h.resetTo(episodesState)

			s, ok := h.pop()
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, episodesState)
			So(h, ShouldBeEmpty)
		})
	})
}
