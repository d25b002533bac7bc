// Package input maps keyboard, pointer and touch events to transport commands,
// with device-aware timing for control auto-hide and double taps.
package input

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/anisan-cli/anistream/clock"
	"github.com/anisan-cli/anistream/key"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/transport"
	"github.com/anisan-cli/anistream/util"
	bkey "github.com/charmbracelet/bubbles/key"
	"github.com/spf13/viper"
)

// Commands is the transport surface the router drives. *transport.Transport implements it.
type Commands interface {
	TogglePlay() error
	Skip(delta float64) error
	SetVolume(level float64) error
	Volume() float64
	ToggleMute() error
	ToggleFullscreen() error
	SkipIntro() (bool, error)
	SkipOutro() (bool, error)
	ChangeEpisode(d transport.Direction) bool
	Retry()
	Playing() bool
}

const (
	MinMobileHideDelay = 5 * time.Second
	MaxMobileHideDelay = 8 * time.Second
)

// Config holds the gesture timings.
type Config struct {
	SeekStep        float64
	VolumeStep      float64
	HideDelay       time.Duration
	MobileHideDelay time.Duration
	DoubleTap       time.Duration
	DragThreshold   float64
}

func DefaultConfig() Config {
	return Config{
		SeekStep:        10,
		VolumeStep:      0.1,
		HideDelay:       3 * time.Second,
		MobileHideDelay: MinMobileHideDelay,
		DoubleTap:       300 * time.Millisecond,
		DragThreshold:   50,
	}
}

// ConfigFromViper reads the input.* keys.
func ConfigFromViper() Config {
	cfg := DefaultConfig()
	if step := viper.GetFloat64(key.InputSeekStep); step > 0 {
		cfg.SeekStep = step
	}
	cfg.MobileHideDelay = time.Duration(viper.GetInt(key.InputMobileHideSecs)) * time.Second
	return cfg
}

// Option configures a Router.
type Option func(*Router)

func WithConfig(cfg Config) Option {
	return func(r *Router) {
		r.cfg = cfg
	}
}

func WithKeyMap(k KeyMap) Option {
	return func(r *Router) {
		r.keys = k
	}
}

// WithControlsHandler is called whenever the controls are shown or hidden.
func WithControlsHandler(fn func(visible bool)) Option {
	return func(r *Router) {
		r.onControls = fn
	}
}

type drag struct {
	startX, startY float64
	x, y           float64
}

// Router is safe for concurrent use. Timer callbacks run on the clock's goroutine.
type Router struct {
	cmds    Commands
	clock   clock.Clock
	profile Profile
	cfg     Config
	keys    KeyMap

	onControls func(bool)

	mu        sync.Mutex
	textFocus bool
	visible   bool
	hideTimer clock.Timer
	lastTap   time.Time
	tapped    bool
	drag      *drag
}

func NewRouter(cmds Commands, c clock.Clock, profile Profile, opts ...Option) *Router {
	r := &Router{
		cmds:    cmds,
		clock:   c,
		profile: profile,
		cfg:     DefaultConfig(),
		keys:    DefaultKeyMap(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cfg.MobileHideDelay = util.Clamp(r.cfg.MobileHideDelay, MinMobileHideDelay, MaxMobileHideDelay)
	return r
}

func (r *Router) Profile() Profile {
	return r.profile
}

func (r *Router) KeyMap() KeyMap {
	return r.keys
}

// SetTextFocus marks whether a text input currently owns the keyboard.
func (r *Router) SetTextFocus(focused bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textFocus = focused
}

// ControlsVisible reports whether the controls are shown.
func (r *Router) ControlsVisible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// HideDelay is the auto-hide delay of the active profile.
func (r *Router) HideDelay() time.Duration {
	if r.profile == Mobile {
		return r.cfg.MobileHideDelay
	}
	return r.cfg.HideDelay
}

// HandleKey runs the command bound to k. It reports whether the key was consumed.
// Keys are ignored on the mobile profile and while a text input has focus.
func (r *Router) HandleKey(k fmt.Stringer) bool {
	r.mu.Lock()
	ignore := r.textFocus || r.profile == Mobile
	r.mu.Unlock()
	if ignore {
		return false
	}

	var err error
	switch {
	case bkey.Matches(k, r.keys.TogglePlay):
		err = r.cmds.TogglePlay()
	case bkey.Matches(k, r.keys.SeekBack):
		err = r.cmds.Skip(-r.cfg.SeekStep)
	case bkey.Matches(k, r.keys.SeekForward):
		err = r.cmds.Skip(r.cfg.SeekStep)
	case bkey.Matches(k, r.keys.VolumeUp):
		err = r.cmds.SetVolume(r.stepVolume(r.cfg.VolumeStep))
	case bkey.Matches(k, r.keys.VolumeDown):
		err = r.cmds.SetVolume(r.stepVolume(-r.cfg.VolumeStep))
	case bkey.Matches(k, r.keys.Fullscreen):
		err = r.cmds.ToggleFullscreen()
	case bkey.Matches(k, r.keys.Mute):
		err = r.cmds.ToggleMute()
	case bkey.Matches(k, r.keys.SkipIntro):
		_, err = r.cmds.SkipIntro()
	case bkey.Matches(k, r.keys.SkipOutro):
		_, err = r.cmds.SkipOutro()
	case bkey.Matches(k, r.keys.NextEpisode):
		r.cmds.ChangeEpisode(transport.Next)
	case bkey.Matches(k, r.keys.PrevEpisode):
		r.cmds.ChangeEpisode(transport.Previous)
	case bkey.Matches(k, r.keys.Retry):
		r.cmds.Retry()
	default:
		return false
	}

	r.report(k.String(), err)
	return true
}

// stepVolume rounds to the step grid so repeated presses do not drift.
func (r *Router) stepVolume(delta float64) float64 {
	v := r.cmds.Volume() + delta
	return util.Clamp(math.Round(v*100)/100, 0, 1)
}

// Click toggles playback on the desktop profile.
func (r *Router) Click() {
	if r.profile != Desktop {
		return
	}
	r.report("click", r.cmds.TogglePlay())
	r.Reveal()
}

// Hover reveals the controls on the desktop profile.
func (r *Router) Hover() {
	if r.profile != Desktop {
		return
	}
	r.Reveal()
}

// Tap handles a touch tap. Two taps within the double-tap window toggle playback;
// a single tap reveals the controls.
func (r *Router) Tap() {
	if r.profile != Mobile {
		return
	}

	now := r.clock.Now()
	r.mu.Lock()
	double := r.tapped && now.Sub(r.lastTap) <= r.cfg.DoubleTap
	if double {
		r.tapped = false
	} else {
		r.tapped = true
		r.lastTap = now
	}
	r.mu.Unlock()

	if double {
		r.report("double tap", r.cmds.TogglePlay())
	}
	r.Reveal()
}

// TouchStart begins tracking a drag.
func (r *Router) TouchStart(x, y float64) {
	if r.profile != Mobile {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drag = &drag{startX: x, startY: y, x: x, y: y}
}

// TouchMove updates the tracked drag.
func (r *Router) TouchMove(x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drag != nil {
		r.drag.x, r.drag.y = x, y
	}
}

// TouchEnd finishes a drag. A mostly horizontal drag beyond the threshold skips one
// step in its direction. Vertical drags are ignored.
func (r *Router) TouchEnd() {
	r.mu.Lock()
	d := r.drag
	r.drag = nil
	r.mu.Unlock()
	if d == nil {
		return
	}

	dx, dy := d.x-d.startX, d.y-d.startY
	if math.Abs(dx) <= r.cfg.DragThreshold || math.Abs(dx) < math.Abs(dy) {
		return
	}

	step := r.cfg.SeekStep
	if dx < 0 {
		step = -step
	}
	r.report("swipe", r.cmds.Skip(step))
	r.Reveal()
}

// Reveal shows the controls and restarts the auto-hide timer while playing.
func (r *Router) Reveal() {
	r.mu.Lock()
	wasVisible := r.visible
	r.visible = true
	if r.hideTimer != nil {
		r.hideTimer.Stop()
		r.hideTimer = nil
	}
	if r.cmds.Playing() {
		var t clock.Timer
		t = r.clock.AfterFunc(r.HideDelay(), func() {
			r.hide(t)
		})
		r.hideTimer = t
	}
	r.mu.Unlock()

	if !wasVisible {
		r.notify(true)
	}
}

// Close stops the auto-hide timer.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hideTimer != nil {
		r.hideTimer.Stop()
		r.hideTimer = nil
	}
}

func (r *Router) hide(t clock.Timer) {
	r.mu.Lock()
	if r.hideTimer != t || !r.visible {
		r.mu.Unlock()
		return
	}
	r.hideTimer = nil
	r.visible = false
	r.mu.Unlock()

	r.notify(false)
}

func (r *Router) notify(visible bool) {
	if r.onControls != nil {
		r.onControls(visible)
	}
}

func (r *Router) report(what string, err error) {
	if err != nil {
		log.Warnf("input %s: %v", what, err)
	}
}
