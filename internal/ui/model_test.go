package ui

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestModel(t *testing.T) {
	Convey("Given a notifier", t, func() {
		m := &Model{}
		So(m.View("body"), ShouldEqual, "body")

		Convey("A notification is appended to the last line", func() {
			cmd := m.Update(Notify("Playing Episode 2")())
			So(cmd, ShouldNotBeNil)
			So(m.Current(), ShouldEqual, "Playing Episode 2")
			So(m.View("a\nb"), ShouldStartWith, "a\nb  ")
			So(m.View("a\nb"), ShouldContainSubstring, "Playing Episode 2")

			Convey("and survives an early clear", func() {
				m.Update(ClearNotificationMsg{})
				So(m.Current(), ShouldEqual, "Playing Episode 2")
			})

			Convey("and is cleared once expired", func() {
				m.notifiedAt = time.Now().Add(-Lifetime)
				m.Update(ClearNotificationMsg{})
				So(m.Current(), ShouldBeEmpty)
			})
		})

		Convey("Other messages are ignored", func() {
			So(m.Update("plain string"), ShouldBeNil)
			So(m.Current(), ShouldBeEmpty)
		})
	})
}
