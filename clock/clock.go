// Package clock abstracts wall-clock reads and cancellable timers so that
// watchdogs, auto-hide and gesture windows can be driven by simulated time.
package clock

import "time"

// Timer is a scheduled callback that can be cancelled before it fires.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the callback from running.
	Stop() bool
}

// Clock supplies monotonic time and scheduled callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type hostClock struct{}

// Real returns the host clock.
func Real() Clock {
	return hostClock{}
}

func (hostClock) Now() time.Time {
	return time.Now()
}

func (hostClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
