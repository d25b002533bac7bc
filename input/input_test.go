package input

import (
	"testing"
	"time"

	"github.com/anisan-cli/anistream/clock"
	"github.com/anisan-cli/anistream/transport"
	. "github.com/smartystreets/goconvey/convey"
)

type keyName string

func (k keyName) String() string { return string(k) }

type recorder struct {
	calls   []string
	skips   []float64
	volume  float64
	playing bool
}

func (r *recorder) TogglePlay() error {
	r.calls = append(r.calls, "toggle")
	r.playing = !r.playing
	return nil
}

func (r *recorder) Skip(delta float64) error {
	r.skips = append(r.skips, delta)
	return nil
}

func (r *recorder) SetVolume(level float64) error {
	r.volume = level
	return nil
}

func (r *recorder) Volume() float64 { return r.volume }

func (r *recorder) ToggleMute() error {
	r.calls = append(r.calls, "mute")
	return nil
}

func (r *recorder) ToggleFullscreen() error {
	r.calls = append(r.calls, "fullscreen")
	return nil
}

func (r *recorder) SkipIntro() (bool, error) {
	r.calls = append(r.calls, "intro")
	return true, nil
}

func (r *recorder) SkipOutro() (bool, error) {
	r.calls = append(r.calls, "outro")
	return true, nil
}

func (r *recorder) ChangeEpisode(d transport.Direction) bool {
	r.calls = append(r.calls, d.String())
	return true
}

func (r *recorder) Retry() { r.calls = append(r.calls, "retry") }

func (r *recorder) Playing() bool { return r.playing }

var _ Commands = (*transport.Transport)(nil)

func TestKeyboard(t *testing.T) {
	Convey("Given a desktop router", t, func() {
		cmds := &recorder{volume: 0.5}
		r := NewRouter(cmds, clock.NewFake(time.Unix(0, 0)), Desktop)

		Convey("Arrow keys skip by the seek step and adjust volume by 0.1", func() {
			So(r.HandleKey(keyName("left")), ShouldBeTrue)
			So(r.HandleKey(keyName("right")), ShouldBeTrue)
			So(cmds.skips, ShouldResemble, []float64{-10, 10})

			So(r.HandleKey(keyName("up")), ShouldBeTrue)
			So(cmds.volume, ShouldEqual, 0.6)
			So(r.HandleKey(keyName("down")), ShouldBeTrue)
			So(r.HandleKey(keyName("down")), ShouldBeTrue)
			So(cmds.volume, ShouldEqual, 0.4)
		})

		Convey("Volume stays within bounds", func() {
			cmds.volume = 0.95
			r.HandleKey(keyName("up"))
			So(cmds.volume, ShouldEqual, 1)
		})

		Convey("Command keys are routed", func() {
			for _, k := range []string{" ", "f", "m", "i", "o", "n", "p", "r"} {
				So(r.HandleKey(keyName(k)), ShouldBeTrue)
			}
			So(cmds.calls, ShouldResemble, []string{"toggle", "fullscreen", "mute", "intro", "outro", "next", "previous", "retry"})
		})

		Convey("Unbound keys are not consumed", func() {
			So(r.HandleKey(keyName("z")), ShouldBeFalse)
		})

		Convey("Keys are ignored while a text input has focus", func() {
			r.SetTextFocus(true)
			So(r.HandleKey(keyName(" ")), ShouldBeFalse)
			So(cmds.calls, ShouldBeEmpty)

			r.SetTextFocus(false)
			So(r.HandleKey(keyName(" ")), ShouldBeTrue)
		})
	})

	Convey("Given a mobile router", t, func() {
		cmds := &recorder{}
		r := NewRouter(cmds, clock.NewFake(time.Unix(0, 0)), Mobile)

		Convey("The keyboard is ignored", func() {
			So(r.HandleKey(keyName(" ")), ShouldBeFalse)
			So(cmds.calls, ShouldBeEmpty)
		})
	})
}

func TestPointer(t *testing.T) {
	Convey("Given a desktop router", t, func() {
		fake := clock.NewFake(time.Unix(0, 0))
		cmds := &recorder{}
		var shown []bool
		r := NewRouter(cmds, fake, Desktop, WithControlsHandler(func(v bool) {
			shown = append(shown, v)
		}))

		Convey("A click toggles play and reveals the controls", func() {
			r.Click()
			So(cmds.calls, ShouldResemble, []string{"toggle"})
			So(r.ControlsVisible(), ShouldBeTrue)

			Convey("They hide after three seconds while playing", func() {
				fake.Advance(2999 * time.Millisecond)
				So(r.ControlsVisible(), ShouldBeTrue)
				fake.Advance(time.Millisecond)
				So(r.ControlsVisible(), ShouldBeFalse)
				So(shown, ShouldResemble, []bool{true, false})
			})

			Convey("Hovering restarts the timer", func() {
				fake.Advance(2 * time.Second)
				r.Hover()
				fake.Advance(2 * time.Second)
				So(r.ControlsVisible(), ShouldBeTrue)
				fake.Advance(time.Second)
				So(r.ControlsVisible(), ShouldBeFalse)
			})
		})

		Convey("While paused the controls stay visible", func() {
			r.Hover()
			fake.Advance(time.Minute)
			So(r.ControlsVisible(), ShouldBeTrue)
			So(fake.Pending(), ShouldEqual, 0)
		})

		Convey("Touch events are ignored", func() {
			r.Tap()
			r.Tap()
			So(cmds.calls, ShouldBeEmpty)
		})
	})
}

func TestTouch(t *testing.T) {
	Convey("Given a mobile router", t, func() {
		fake := clock.NewFake(time.Unix(0, 0))
		cmds := &recorder{}
		r := NewRouter(cmds, fake, Mobile)

		Convey("Two taps within 300ms toggle play", func() {
			r.Tap()
			So(cmds.calls, ShouldBeEmpty)
			So(r.ControlsVisible(), ShouldBeTrue)
			fake.Advance(300 * time.Millisecond)
			r.Tap()
			So(cmds.calls, ShouldResemble, []string{"toggle"})

			Convey("A third tap starts a new pair", func() {
				r.Tap()
				So(cmds.calls, ShouldHaveLength, 1)
			})
		})

		Convey("Taps further apart do not", func() {
			r.Tap()
			fake.Advance(301 * time.Millisecond)
			r.Tap()
			So(cmds.calls, ShouldBeEmpty)
		})

		Convey("A horizontal drag beyond 50px skips in its direction", func() {
			r.TouchStart(100, 100)
			r.TouchMove(140, 105)
			r.TouchMove(151, 110)
			r.TouchEnd()

			r.TouchStart(300, 100)
			r.TouchMove(200, 100)
			r.TouchEnd()
			So(cmds.skips, ShouldResemble, []float64{10, -10})
		})

		Convey("Short and vertical drags are ignored", func() {
			r.TouchStart(100, 100)
			r.TouchMove(150, 100)
			r.TouchEnd()

			r.TouchStart(100, 100)
			r.TouchMove(160, 300)
			r.TouchEnd()
			So(cmds.skips, ShouldBeEmpty)
		})

		Convey("The controls hide after the mobile delay while playing", func() {
			cmds.playing = true
			r.Tap()
			fake.Advance(4 * time.Second)
			So(r.ControlsVisible(), ShouldBeTrue)
			fake.Advance(time.Second)
			So(r.ControlsVisible(), ShouldBeFalse)
		})

		Convey("Mouse events are ignored", func() {
			r.Click()
			So(cmds.calls, ShouldBeEmpty)
		})
	})

	Convey("Given an out-of-range mobile hide delay", t, func() {
		cfg := DefaultConfig()
		cfg.MobileHideDelay = 20 * time.Second
		r := NewRouter(&recorder{}, clock.NewFake(time.Unix(0, 0)), Mobile, WithConfig(cfg))

		Convey("It is clamped to 8 seconds", func() {
			So(r.HideDelay(), ShouldEqual, MaxMobileHideDelay)
		})
	})
}

func TestProfileFor(t *testing.T) {
	Convey("Profile resolution", t, func() {
		So(ProfileFor("auto", 80, 100), ShouldEqual, Mobile)
		So(ProfileFor("auto", 120, 100), ShouldEqual, Desktop)
		So(ProfileFor("auto", 0, 100), ShouldEqual, Desktop)
		So(ProfileFor("Mobile", 200, 100), ShouldEqual, Mobile)
		So(ProfileFor("desktop", 10, 100), ShouldEqual, Desktop)
	})
}
