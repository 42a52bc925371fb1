package log

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/plst4-cli/plst4/filesystem"
	"github.com/plst4-cli/plst4/key"
	"github.com/plst4-cli/plst4/where"
	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Given logging is disabled", t, func() {
		viper.Set(key.LogsWrite, false)
		So(Setup(), ShouldBeNil)
		So(enabled, ShouldBeFalse)
	})

	Convey("Given logging is enabled", t, func() {
		viper.Set(key.LogsWrite, true)
		viper.Set(key.LogsLevel, "debug")
		viper.Set(key.LogsJson, true)
		defer viper.Set(key.LogsWrite, false)

		So(Setup(), ShouldBeNil)
		So(logrus.GetLevel(), ShouldEqual, logrus.DebugLevel)

		Convey("Structured entries reach today's file", func() {
			With("session", "42", "dangling").Info("joined")

			path := filepath.Join(where.Logs(), time.Now().Format("2006-01-02")+".log")
			data, err := filesystem.API().ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"session":"42"`)
			So(strings.Contains(string(data), "dangling"), ShouldBeFalse)
		})
	})
}
