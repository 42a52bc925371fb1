package cache

import (
	"testing"
	"time"

	"github.com/plst4-cli/plst4/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPrune(t *testing.T) {
	Convey("Given a directory with old and fresh files", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		So(fs.MkdirAll("/logs", 0o755), ShouldBeNil)

		So(fs.WriteFile("/logs/2024-01-01.log", []byte("old"), 0o644), ShouldBeNil)
		So(fs.WriteFile("/logs/2024-01-09.log", []byte("new"), 0o644), ShouldBeNil)

		old := time.Now().Add(-10 * 24 * time.Hour)
		So(fs.Chtimes("/logs/2024-01-01.log", old, old), ShouldBeNil)

		Convey("Only the stale file is removed", func() {
			n, err := Prune("/logs", TTL)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			exists, _ := fs.Exists("/logs/2024-01-01.log")
			So(exists, ShouldBeFalse)
			exists, _ = fs.Exists("/logs/2024-01-09.log")
			So(exists, ShouldBeTrue)
		})

		Convey("A missing directory is fine", func() {
			n, err := Prune("/nope", TTL)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})
	})
}
