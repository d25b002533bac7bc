package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/where"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

type entry struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func TestCache(t *testing.T) {
	Convey("Given a cached entry", t, func() {
		key := GenerateKey("https://host/api?q=one piece", "GET")
		So(Write(key, entry{Status: 200, Body: "ok"}), ShouldBeNil)

		Convey("It reads back", func() {
			var got entry
			So(Read(key, &got), ShouldBeTrue)
			So(got, ShouldResemble, entry{Status: 200, Body: "ok"})
		})

		Convey("Keys ignore case and spaces", func() {
			So(GenerateKey("https://HOST/api?q=onepiece", "GET"), ShouldEqual, key)
			So(GenerateKey("https://host/api?q=one piece", "POST"), ShouldNotEqual, key)
		})

		Convey("Expired entries miss and are collected", func() {
			old := time.Now().Add(-2 * TTL)
			So(filesystem.API().Chtimes(filepath.Join(where.Cache(), key), old, old), ShouldBeNil)

			var got entry
			So(Read(key, &got), ShouldBeFalse)
			So(CollectGarbage(), ShouldBeGreaterThanOrEqualTo, 1)

			exists, _ := filesystem.API().Exists(filepath.Join(where.Cache(), key))
			So(exists, ShouldBeFalse)
		})
	})

	Convey("A missing key misses", t, func() {
		var got entry
		So(Read(GenerateKey("absent", "GET"), &got), ShouldBeFalse)
	})
}
