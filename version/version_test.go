package version

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/network"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCompare(t *testing.T) {
	Convey("Compare orders semantic versions", t, func() {
		for _, tc := range []struct {
			a, b string
			want int
		}{
			{"1.0.0", "1.0.0", 0},
			{"v1.2.0", "1.1.9", 1},
			{"0.9.9", "1.0.0", -1},
			{"1.0.10", "1.0.9", 1},
			{"1.2", "1.2.0", 0},
			{"1.3.0-rc.1", "1.3.0", -1},
			{"1.3.0", "1.3.0-rc.1", 1},
			{"1.3.0-rc.2", "1.3.0-rc.10", -1},
			{"1.3.0-beta", "1.3.0-alpha.1", 1},
			{"1.3.0+build.7", "1.3.0", 0},
		} {
			got, err := Compare(tc.a, tc.b)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, tc.want)
		}

		_, err := Compare("one", "1.0.0")
		So(err, ShouldNotBeNil)
		_, err = Compare("1.0.0", "1.0.0.0")
		So(err, ShouldNotBeNil)
	})
}

func TestLatest(t *testing.T) {
	Convey("Given a releases endpoint", t, func() {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			_, _ = w.Write([]byte(`{"tag_name": "v9.1.0"}`))
		}))
		defer server.Close()
		ReleasesURL = server.URL
		_ = versionCacher.Set("")

		Convey("The tag is fetched once and cached", func() {
			v, err := Latest(context.Background(), network.Client)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "9.1.0")

			v, err = Latest(context.Background(), network.Client)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "9.1.0")
			So(calls, ShouldEqual, 1)
		})

		Convey("Notify announces the newer release", func() {
			viper.Set(key.CliVersionCheck, true)
			var out bytes.Buffer
			Notify(&out)
			So(out.String(), ShouldContainSubstring, "9.1.0")
		})

		Convey("Notify stays quiet when disabled", func() {
			viper.Set(key.CliVersionCheck, false)
			var out bytes.Buffer
			Notify(&out)
			So(out.Len(), ShouldEqual, 0)
		})
	})
}
