package open

import (
	"testing"

	"github.com/plst4-cli/plst4/constant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCommand(t *testing.T) {
	Convey("Command", t, func() {
		Convey("Uses the system handler without an app", func() {
			cmd, err := Command(constant.Linux, "http://127.0.0.1:7384/", "")
			So(err, ShouldBeNil)
			So(cmd.Args, ShouldResemble, []string{"xdg-open", "http://127.0.0.1:7384/"})

			cmd, err = Command(constant.Darwin, "http://127.0.0.1:7384/", "")
			So(err, ShouldBeNil)
			So(cmd.Args, ShouldResemble, []string{"open", "http://127.0.0.1:7384/"})
		})

		Convey("Uses the given app", func() {
			cmd, err := Command(constant.Darwin, "http://x/", "Firefox")
			So(err, ShouldBeNil)
			So(cmd.Args, ShouldResemble, []string{"open", "-a", "Firefox", "http://x/"})

			cmd, err = Command(constant.Windows, "http://x/?a=1&b=2", "chrome")
			So(err, ShouldBeNil)
			So(cmd.Args[len(cmd.Args)-1], ShouldEqual, "http://x/?a=1^&b=2")
		})

		Convey("Fails on unknown platforms", func() {
			_, err := Command("plan9", "http://x/", "")
			So(err, ShouldNotBeNil)
		})
	})
}
