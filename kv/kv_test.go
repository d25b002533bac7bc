package kv

import (
	"context"
	"testing"

	"github.com/anisan-cli/anistream/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestStores(t *testing.T) {
	ctx := context.Background()

	stores := map[string]func() Store{
		"MemoryStore": func() Store { return NewMemoryStore() },
		"FileStore":   func() Store { return NewFileStore("/kv/test-" + t.Name() + ".json") },
	}

	for name, open := range stores {
		Convey("Given a "+name, t, func() {
			s := open()

			Convey("A missing key is not an error", func() {
				_, ok, err := s.Get(ctx, "missing")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("Values round-trip and last write wins", func() {
				So(s.Set(ctx, "k", "v1"), ShouldBeNil)
				So(s.Set(ctx, "k", "v2"), ShouldBeNil)
				v, ok, err := s.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "v2")
			})
		})
	}

	Convey("A FileStore over a corrupt file reports an error and recovers on write", t, func() {
		path := "/kv/corrupt.json"
		So(filesystem.API().MkdirAll("/kv", 0755), ShouldBeNil)
		So(filesystem.API().WriteFile(path, []byte("{not json"), 0644), ShouldBeNil)

		s := NewFileStore(path)
		_, _, err := s.Get(ctx, "k")
		So(err, ShouldNotBeNil)

		So(s.Set(ctx, "k", "v"), ShouldBeNil)
		v, ok, err := s.Get(ctx, "k")
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, "v")
	})
}
