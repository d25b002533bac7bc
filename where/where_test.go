package where

import (
	"path/filepath"
	"testing"

	"github.com/anisan-cli/anistream/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Directories are created on resolution", func() {
			for _, dir := range []string{Config(), Cache(), Logs(), Scripts(), Subtitles()} {
				So(dir, ShouldNotBeEmpty)
				So(lo.Must(filesystem.API().IsDir(dir)), ShouldBeTrue)
			}
		})

		Convey("Preferences live in the config directory", func() {
			So(filepath.Dir(Preferences()), ShouldEqual, Config())
		})

		Convey("Subtitles are staged under the temp directory", func() {
			So(filepath.Dir(Subtitles()), ShouldEqual, Temp())
		})
	})
}
