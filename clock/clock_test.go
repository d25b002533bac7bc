package clock

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFake(t *testing.T) {
	Convey("Given a fake clock", t, func() {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		c := NewFake(start)

		Convey("Timers fire in deadline order once due", func() {
			var fired []string
			c.AfterFunc(3*time.Second, func() { fired = append(fired, "b") })
			c.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })

			c.Advance(2 * time.Second)
			So(fired, ShouldResemble, []string{"a"})
			So(c.Now(), ShouldEqual, start.Add(2*time.Second))

			c.Advance(time.Second)
			So(fired, ShouldResemble, []string{"a", "b"})
			So(c.Pending(), ShouldEqual, 0)
		})

		Convey("Stopped timers never fire", func() {
			fired := false
			timer := c.AfterFunc(time.Second, func() { fired = true })
			So(timer.Stop(), ShouldBeTrue)
			So(timer.Stop(), ShouldBeFalse)

			c.Advance(time.Minute)
			So(fired, ShouldBeFalse)
		})

		Convey("Callbacks may schedule further timers", func() {
			count := 0
			var tick func()
			tick = func() {
				count++
				if count < 3 {
					c.AfterFunc(time.Second, tick)
				}
			}
			c.AfterFunc(time.Second, tick)

			c.Advance(10 * time.Second)
			So(count, ShouldEqual, 3)
		})
	})
}
