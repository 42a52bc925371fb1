package util

import (
	"testing"

	"github.com/plst4-cli/plst4/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "session", "sessions"), ShouldEqual, "1 session")
		So(Quantify(0, "session", "sessions"), ShouldEqual, "0 sessions")
		So(Quantify(2, "session", "sessions"), ShouldEqual, "2 sessions")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("cache directory"), ShouldEqual, "Cache directory")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestDelete(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()

		Convey("Delete removes files", func() {
			So(fs.WriteFile("/a.json", []byte("{}"), 0o644), ShouldBeNil)
			So(Delete("/a.json"), ShouldBeNil)

			exists, _ := fs.Exists("/a.json")
			So(exists, ShouldBeFalse)
		})

		Convey("Delete removes directory trees", func() {
			So(fs.MkdirAll("/cache/sub", 0o755), ShouldBeNil)
			So(fs.WriteFile("/cache/sub/x", []byte("x"), 0o644), ShouldBeNil)
			So(Delete("/cache"), ShouldBeNil)

			exists, _ := fs.DirExists("/cache")
			So(exists, ShouldBeFalse)
		})

		Convey("Delete reports missing paths", func() {
			So(Delete("/missing"), ShouldNotBeNil)
		})
	})
}
