package ui

import (
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestModel(t *testing.T) {
	Convey("Given a notification stack", t, func() {
		m := New(time.Second)

		Convey("It renders nothing when empty", func() {
			So(m.View(80), ShouldBeEmpty)
		})

		Convey("When notified", func() {
			cmd := m.Update(NotifyMsg{Title: "Queue updated", Body: "3 items"})
			So(cmd, ShouldNotBeNil)
			So(m.Items(), ShouldHaveLength, 1)
			So(m.View(80), ShouldContainSubstring, "Queue updated")
			So(m.View(80), ShouldContainSubstring, "3 items")

			Convey("The matching clear removes it", func() {
				So(m.Update(ClearNotificationMsg{ID: 42}), ShouldBeNil)
				So(m.Items(), ShouldHaveLength, 1)

				m.Update(ClearNotificationMsg{ID: m.Items()[0].ID})
				So(m.Items(), ShouldBeEmpty)
			})
		})

		Convey("Only the newest notifications are kept", func() {
			for i := 0; i < MaxVisible+2; i++ {
				m.Update(NotifyMsg{Title: fmt.Sprint(i)})
			}
			items := m.Items()
			So(items, ShouldHaveLength, MaxVisible)
			So(items[0].Title, ShouldEqual, "2")
			So(items[MaxVisible-1].Title, ShouldEqual, fmt.Sprint(MaxVisible+1))
		})

		Convey("Other messages are ignored", func() {
			So(m.Update("hello"), ShouldBeNil)
			So(m.Items(), ShouldBeEmpty)
		})
	})
}
