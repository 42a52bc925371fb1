package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/plst4-cli/plst4/socket"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseTarget(t *testing.T) {
	Convey("Given the configured server", t, func() {
		server, _ := url.Parse("http://localhost:6972")

		Convey("A bare id joins on that server", func() {
			base, id, err := parseTarget(server, "abc/")
			So(err, ShouldBeNil)
			So(base, ShouldEqual, server)
			So(id, ShouldEqual, "abc")
		})

		Convey("A watch url names its own server", func() {
			base, id, err := parseTarget(server, "https://plst4.example.org/watch/abc")
			So(err, ShouldBeNil)
			So(base.String(), ShouldEqual, "https://plst4.example.org")
			So(id, ShouldEqual, "abc")
		})

		Convey("A path prefix is kept", func() {
			base, id, err := parseTarget(server, "https://example.org/plst4/watch/abc/")
			So(err, ShouldBeNil)
			So(base.String(), ShouldEqual, "https://example.org/plst4")
			So(id, ShouldEqual, "abc")
		})

		Convey("Other urls are rejected", func() {
			_, _, err := parseTarget(server, "https://example.org/queue/abc")
			So(err, ShouldNotBeNil)

			_, _, err = parseTarget(server, "https://example.org/watch/abc/queue")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestEnded(t *testing.T) {
	Convey("Normal ways a session stops are not errors", t, func() {
		So(ended(nil), ShouldBeNil)
		So(ended(context.Canceled), ShouldBeNil)
		So(ended(fmt.Errorf("run: %w", &socket.TerminalError{Code: 1000})), ShouldBeNil)

		Convey("Other terminal closes are", func() {
			err := &socket.TerminalError{Code: 4001}
			So(ended(err), ShouldResemble, err)
			So(ended(errors.New("boom")), ShouldNotBeNil)
		})
	})
}
