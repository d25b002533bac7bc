package resolver

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func src(url string, adaptive bool) source.Source {
	return source.Source{URL: url, IsAdaptiveManifest: adaptive}
}

func TestRank(t *testing.T) {
	Convey("Given a mixed source list", t, func() {
		sources := []source.Source{
			src("b.mp4", false),
			src("a.m3u8", true),
			src("c.mp4", false),
			src("d.m3u8", true),
		}

		Convey("Adaptive sources come first and relative order is preserved", func() {
			ranked := Rank(sources, NewFailedSet())
			So(lo.Map(ranked, func(s source.Source, _ int) string { return s.URL }),
				ShouldResemble, []string{"a.m3u8", "d.m3u8", "b.mp4", "c.mp4"})
		})

		Convey("Failed URLs are excluded", func() {
			failed := NewFailedSet()
			failed.Add("a.m3u8")
			failed.Add("c.mp4")
			ranked := Rank(sources, failed)
			So(lo.Map(ranked, func(s source.Source, _ int) string { return s.URL }),
				ShouldResemble, []string{"d.m3u8", "b.mp4"})
		})

		Convey("When every source failed the ranking is empty", func() {
			failed := NewFailedSet()
			for _, s := range sources {
				failed.Add(s.URL)
			}
			So(Rank(sources, failed), ShouldBeEmpty)
		})

		Convey("The input is not reordered", func() {
			_ = Rank(sources, nil)
			So(sources[0].URL, ShouldEqual, "b.mp4")
		})
	})

	Convey("For random lists and failure subsets the grouping invariant holds", t, func() {
		rng := rand.New(rand.NewSource(7))
		for round := 0; round < 200; round++ {
			n := rng.Intn(8)
			var sources []source.Source
			failed := NewFailedSet()
			for i := 0; i < n; i++ {
				s := src(fmt.Sprintf("s%d", i), rng.Intn(2) == 0)
				sources = append(sources, s)
				if rng.Intn(3) == 0 {
					failed.Add(s.URL)
				}
			}

			ranked := Rank(sources, failed)
			seenSingle := false
			lastAdaptive, lastSingle := -1, -1
			for _, s := range ranked {
				So(failed.Has(s.URL), ShouldBeFalse)
				pos := lo.IndexOf(lo.Map(sources, func(x source.Source, _ int) string { return x.URL }), s.URL)
				if s.IsAdaptiveManifest {
					So(seenSingle, ShouldBeFalse)
					So(pos, ShouldBeGreaterThan, lastAdaptive)
					lastAdaptive = pos
				} else {
					seenSingle = true
					So(pos, ShouldBeGreaterThan, lastSingle)
					lastSingle = pos
				}
			}
			So(len(ranked), ShouldEqual, n-failed.Len())
		}
	})
}

func TestFailedSet(t *testing.T) {
	Convey("FailedSet", t, func() {
		f := NewFailedSet()
		f.Add("x")
		f.Add("x")
		So(f.Len(), ShouldEqual, 1)
		So(f.Has("x"), ShouldBeTrue)
		f.Reset()
		So(f.Len(), ShouldEqual, 0)

		var none *FailedSet
		So(none.Has("x"), ShouldBeFalse)
		So(none.Len(), ShouldEqual, 0)
	})
}
