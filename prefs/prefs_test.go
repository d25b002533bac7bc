package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/filesystem"
	"github.com/anisan-cli/anistream/kv"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (brokenStore) Set(context.Context, string, string) error {
	return errors.New("disk on fire")
}

func TestLoad(t *testing.T) {
	Convey("Given an empty store", t, func() {
		s := New(kv.NewMemoryStore())

		Convey("Load yields defaults", func() {
			So(s.Load(), ShouldResemble, Defaults())
		})
	})

	Convey("Given a partial record", t, func() {
		backend := kv.NewMemoryStore()
		So(backend.Set(context.Background(), constant.PreferencesKey, `{"volume":0.3,"selectedSubtitleLang":"English"}`), ShouldBeNil)

		Convey("Present fields are kept and the rest default", func() {
			p := New(backend).Load()
			So(p.Volume, ShouldEqual, 0.3)
			So(p.SubtitleLang, ShouldEqual, "English")
			So(p.Quality, ShouldEqual, AutoQuality)
			So(p.SubtitleStyle, ShouldResemble, Defaults().SubtitleStyle)
		})
	})

	Convey("Given a record with invalid fields", t, func() {
		backend := kv.NewMemoryStore()
		So(backend.Set(context.Background(), constant.PreferencesKey,
			`{"volume":7,"playbackRate":"fast","subtitleTextColor":"red","subtitleVerticalPosition":80,"selectedQuality":-4}`), ShouldBeNil)

		Convey("Only the invalid fields fall back", func() {
			p := New(backend).Load()
			d := Defaults()
			So(p.Volume, ShouldEqual, d.Volume)
			So(p.PlaybackRate, ShouldEqual, d.PlaybackRate)
			So(p.SubtitleStyle.TextColor, ShouldEqual, d.SubtitleStyle.TextColor)
			So(p.Quality, ShouldEqual, d.Quality)
			So(p.SubtitleStyle.VerticalPosition, ShouldEqual, 80)
		})
	})

	Convey("Given a corrupt record", t, func() {
		backend := kv.NewMemoryStore()
		So(backend.Set(context.Background(), constant.PreferencesKey, `[1,2`), ShouldBeNil)

		Convey("Load yields defaults", func() {
			So(New(backend).Load(), ShouldResemble, Defaults())
		})
	})

	Convey("Given a failing backend", t, func() {
		s := New(brokenStore{})

		Convey("Load yields defaults and Save does not panic", func() {
			So(s.Load(), ShouldResemble, Defaults())
			So(func() { s.Save(Defaults()) }, ShouldNotPanic)
		})
	})
}

func TestRoundTrip(t *testing.T) {
	Convey("Given valid preferences including the sentinels", t, func() {
		p := PlayerPreferences{
			Volume:       0.25,
			Muted:        true,
			Quality:      AutoQuality,
			SubtitleLang: SubtitleOff,
			PlaybackRate: 1.5,
			SubtitleStyle: Style{
				FontSize:          32,
				TextColor:         "#ffcc00",
				BackgroundColor:   "#101010",
				BackgroundOpacity: 0.75,
				VerticalPosition:  60,
			},
		}
		So(p.Valid(), ShouldBeTrue)

		Convey("save then load returns them unchanged on every backend", func() {
			for _, backend := range []kv.Store{kv.NewMemoryStore(), kv.NewFileStore("/prefs/roundtrip.json")} {
				s := New(backend)
				s.Save(p)
				So(s.Load(), ShouldResemble, p)
			}
		})
	})

	Convey("Given random valid preferences", t, func() {
		r := rand.New(rand.NewSource(42))
		s := New(kv.NewMemoryStore())

		Convey("Every one round-trips", func() {
			for i := 0; i < 50; i++ {
				p := PlayerPreferences{
					Volume:       float64(r.Intn(101)) / 100,
					Muted:        r.Intn(2) == 0,
					Quality:      r.Intn(8) - 1,
					SubtitleLang: []string{SubtitleOff, "English", "Español"}[r.Intn(3)],
					PlaybackRate: []float64{0.25, 0.5, 1, 1.25, 2, 4}[r.Intn(6)],
					SubtitleStyle: Style{
						FontSize:          MinFontSize + r.Intn(MaxFontSize-MinFontSize+1),
						TextColor:         "#abcdef",
						BackgroundColor:   "#000000",
						BackgroundOpacity: float64(r.Intn(11)) / 10,
						VerticalPosition:  float64(MinVerticalPosition + r.Intn(MaxVerticalPosition-MinVerticalPosition+1)),
					},
				}
				So(p.Valid(), ShouldBeTrue)
				s.Save(p)
				So(s.Load(), ShouldResemble, p)
			}
		})
	})

	Convey("Reset restores defaults", t, func() {
		s := New(kv.NewMemoryStore())
		p := Defaults()
		p.Volume = 0.1
		s.Save(p)
		s.Reset()
		So(s.Load(), ShouldResemble, Defaults())
	})
}

func TestSchema(t *testing.T) {
	Convey("The preferences schema matches the persisted document", t, func() {
		schema := Schema()
		doc, err := json.Marshal(Document(Defaults()))
		So(err, ShouldBeNil)

		var fields map[string]any
		So(json.Unmarshal(doc, &fields), ShouldBeNil)
		So(fields, ShouldContainKey, "subtitleFontSize")

		for name := range fields {
			_, ok := schema.Properties.Get(name)
			So(ok, ShouldBeTrue)
		}
		So(schema.Properties.Len(), ShouldEqual, len(fields))
	})
}
