package where

import (
	"path/filepath"
	"testing"

	"github.com/plst4-cli/plst4/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		for _, target := range []struct {
			name string
			fn   func() string
		}{
			{"Config", Config},
			{"Cache", Cache},
			{"Logs", Logs},
			{"Temp", Temp},
		} {
			Convey(target.name+"() creates its directory", func() {
				path := target.fn()
				So(path, ShouldNotBeEmpty)
				So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
			})
		}

		Convey("Sessions() lives in the config directory", func() {
			So(filepath.Dir(Sessions()), ShouldEqual, Config())
		})

		Convey("PLST4_CONFIG_PATH overrides the config directory", func() {
			t.Setenv(EnvConfigPath, "/custom/plst4")
			So(Config(), ShouldEqual, "/custom/plst4")
		})
	})
}
