package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPrometheusCollector(t *testing.T) {
	Convey("Given a fresh collector", t, func() {
		c := NewPrometheusCollector()

		c.SocketOpened()
		c.SocketClosed(1006)
		c.SocketClosed(1006)
		c.ReconnectScheduled(1500 * time.Millisecond)
		c.QueueDepth(3)
		c.MessageReceived("media-change")
		c.StateApplied("yt")
		c.StateRejected()
		c.AdvanceRequested("ok")

		Convey("The handler exposes the recorded series", func() {
			rec := httptest.NewRecorder()
			c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

			body, err := io.ReadAll(rec.Result().Body)
			So(err, ShouldBeNil)

			text := string(body)
			So(text, ShouldContainSubstring, `plst4_socket_closes_total{code="1006"} 2`)
			So(text, ShouldContainSubstring, "plst4_socket_opens_total 1")
			So(text, ShouldContainSubstring, "plst4_socket_queue_depth 3")
			So(text, ShouldContainSubstring, `plst4_states_applied_total{kind="yt"} 1`)
			So(text, ShouldContainSubstring, `plst4_advance_requests_total{result="ok"} 1`)
		})

		Convey("Two collectors do not collide", func() {
			So(func() { NewPrometheusCollector() }, ShouldNotPanic)
		})
	})
}
