package tui

import (
	"bytes"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/plst4-cli/plst4/internal/ui"
	"github.com/plst4-cli/plst4/page"
	"github.com/plst4-cli/plst4/protocol"
	"github.com/plst4-cli/plst4/socket"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeControls struct {
	paused   bool
	toggles  int
	advances int
}

func (f *fakeControls) TogglePause() bool {
	f.toggles++
	f.paused = !f.paused
	return f.paused
}

func (f *fakeControls) Advance() {
	f.advances++
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBubble(t *testing.T) {
	Convey("Given the watch view", t, func() {
		controls := &fakeControls{}
		b := newBubble(Options{Server: "http://localhost:6972", Session: "abc", Controls: controls})
		b.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

		So(b.View(), ShouldContainSubstring, "abc")
		So(b.View(), ShouldContainSubstring, "connecting")
		So(b.View(), ShouldContainSubstring, "nothing playing")

		Convey("Connection updates are shown", func() {
			b.Update(connectionMsg{state: socket.ClosedRetrying, retry: 3})
			So(b.View(), ShouldContainSubstring, "reconnecting (retry 3)")

			b.Update(connectionMsg{state: socket.Open})
			So(b.View(), ShouldContainSubstring, "connected")
		})

		Convey("The applied media is shown", func() {
			b.Update(mediaMsg(protocol.MediaState{Kind: protocol.KindYouTube, URL: "https://youtu.be/x", Version: 2}))
			So(b.View(), ShouldContainSubstring, "https://youtu.be/x")

			Convey("Space toggles pause on the active backend", func() {
				b.Update(runes("p"))
				So(controls.toggles, ShouldEqual, 1)
				So(b.paused, ShouldBeTrue)

				b.Update(runes("p"))
				So(b.paused, ShouldBeFalse)
			})
		})

		Convey("Pause does nothing while idle", func() {
			b.Update(runes("p"))
			So(controls.toggles, ShouldEqual, 0)
		})

		Convey("n requests an advance", func() {
			_, cmd := b.Update(runes("n"))
			So(controls.advances, ShouldEqual, 1)
			So(cmd, ShouldNotBeNil)
			So(cmd(), ShouldHaveSameTypeAs, ui.NotifyMsg{})
		})

		Convey("Only recent events are kept", func() {
			for _, e := range []string{"a", "b", "c", "d", "e", "f", page.EventRefreshPlaylist} {
				b.Update(eventMsg(e))
			}
			So(b.events, ShouldHaveLength, maxEvents)
			So(b.events[maxEvents-1], ShouldEqual, page.EventRefreshPlaylist)
			So(b.View(), ShouldContainSubstring, page.EventRefreshPlaylist)
		})

		Convey("Toasts become notifications", func() {
			_, cmd := b.Update(toastMsg(page.Toast{Kind: "error", Title: "Nope", Description: "not allowed"}))
			So(cmd, ShouldNotBeNil)

			b.Update(cmd())
			So(b.notifier.Items(), ShouldHaveLength, 1)
			So(b.View(), ShouldContainSubstring, "Nope")
		})

		Convey("q quits", func() {
			_, cmd := b.Update(runes("q"))
			So(cmd, ShouldNotBeNil)
			So(cmd(), ShouldHaveSameTypeAs, tea.QuitMsg{})
		})
	})
}

func TestPrinter(t *testing.T) {
	Convey("Given a printer", t, func() {
		var buf bytes.Buffer
		p := NewPrinter(&buf)

		Convey("Repeated connection states are printed once", func() {
			p.Connection(socket.Open, 0)
			p.Connection(socket.Open, 0)
			p.Connection(socket.ClosedRetrying, 1)
			So(buf.String(), ShouldContainSubstring, "connected\n")
			So(buf.String(), ShouldContainSubstring, "reconnecting (retry 1)")
			So(bytes.Count(buf.Bytes(), []byte("\n")), ShouldEqual, 2)
		})

		Convey("Media, events and toasts get a line each", func() {
			p.Media(protocol.MediaState{Kind: protocol.KindSoundCloud, URL: "https://soundcloud.com/a/b"})
			p.Media(protocol.MediaState{Kind: protocol.KindNone})
			p.Event(page.EventRefreshManagers)
			p.Toast(page.Toast{Kind: "info", Title: "Hi", Description: "there"})

			So(buf.String(), ShouldContainSubstring, "sc https://soundcloud.com/a/b")
			So(buf.String(), ShouldContainSubstring, "nothing playing")
			So(buf.String(), ShouldContainSubstring, "event refresh-managers")
			So(buf.String(), ShouldContainSubstring, "Hi: there")
		})
	})
}
