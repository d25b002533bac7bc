//go:build !windows

package player

import (
	"os/exec"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTerminate(t *testing.T) {
	Convey("Given a child running in its own process group", t, func() {
		cmd := exec.Command("sleep", "30")
		cmd.SysProcAttr = sysProcAttr()
		if err := cmd.Start(); err != nil {
			t.Skipf("sleep unavailable: %v", err)
		}
		exited := make(chan struct{})
		go func() {
			_ = cmd.Wait()
			close(exited)
		}()

		Convey("SIGTERM stops it within the grace period", func() {
			_ = terminate(cmd, exited, 2*time.Second)
			select {
			case <-exited:
			case <-time.After(3 * time.Second):
				t.Fatal("child still running")
			}
			So(cmd.ProcessState.Exited(), ShouldBeFalse)
		})
	})

	Convey("A command that never started is ignored", t, func() {
		So(terminate(&exec.Cmd{}, nil, time.Second), ShouldBeNil)
		So(terminate(nil, nil, time.Second), ShouldBeNil)
	})
}
