package playback

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/plst4-cli/plst4/protocol"
	. "github.com/smartystreets/goconvey/convey"
)

// journal records backend calls across all fakes in call order.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, s)
}

func (j *journal) take() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	calls := j.calls
	j.calls = nil
	return calls
}

type fake struct {
	name string
	j    *journal
}

func (f *fake) Start(s protocol.MediaState) { f.j.add(fmt.Sprintf("%s.start(%s)", f.name, s.URL)) }
func (f *fake) Stop()                       { f.j.add(f.name + ".stop") }
func (f *fake) Pause()                      { f.j.add(f.name + ".pause") }
func (f *fake) Play()                       { f.j.add(f.name + ".play") }
func (f *fake) Show()                       { f.j.add(f.name + ".show") }
func (f *fake) Hide()                       { f.j.add(f.name + ".hide") }

func newFixture() (*Registry, *journal) {
	j := &journal{}
	reg := NewRegistry()
	So(reg.Register(protocol.KindYouTube, &fake{name: "yt", j: j}), ShouldBeNil)
	So(reg.Register(protocol.KindTestVideo, &fake{name: "video", j: j}), ShouldBeNil)
	return reg, j
}

func TestRegistry(t *testing.T) {
	Convey("Given a registry", t, func() {
		reg, j := newFixture()

		Convey("Kinds keep registration order", func() {
			So(reg.Kinds(), ShouldResemble, []protocol.Kind{protocol.KindYouTube, protocol.KindTestVideo})
		})

		Convey("Registering a kind twice fails", func() {
			err := reg.Register(protocol.KindYouTube, &fake{name: "again", j: j})
			So(errors.Is(err, ErrDuplicateKind), ShouldBeTrue)
		})

		Convey("none cannot have a backend", func() {
			err := reg.Register(protocol.KindNone, &fake{name: "none", j: j})
			So(errors.Is(err, ErrReservedKind), ShouldBeTrue)
		})

		Convey("Unknown kinds are not found", func() {
			_, ok := reg.Get(protocol.KindNiconico)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestGuard(t *testing.T) {
	Convey("Given a guard over two backends", t, func() {
		reg, j := newFixture()
		g := NewGuard(reg)

		Convey("The first state is always applied", func() {
			So(g.Apply(protocol.MediaState{Kind: protocol.KindYouTube, URL: "a", Version: 5}), ShouldBeTrue)
			So(j.take(), ShouldResemble, []string{
				"yt.stop", "video.stop",
				"yt.show", "yt.start(a)",
				"video.hide",
			})

			kind, _, ok := g.Active()
			So(ok, ShouldBeTrue)
			So(kind, ShouldEqual, protocol.KindYouTube)
			So(g.Version().MustGet(), ShouldEqual, 5)

			Convey("A repeated version causes no backend calls", func() {
				So(g.Apply(protocol.MediaState{Kind: protocol.KindYouTube, URL: "b", Version: 5}), ShouldBeFalse)
				So(j.take(), ShouldBeEmpty)
			})

			Convey("An older version causes no backend calls", func() {
				So(g.Apply(protocol.MediaState{Kind: protocol.KindTestVideo, URL: "b", Version: 3}), ShouldBeFalse)
				So(j.take(), ShouldBeEmpty)
				So(g.Version().MustGet(), ShouldEqual, 5)
			})

			Convey("none stops and hides everything without starting", func() {
				So(g.Apply(protocol.MediaState{Kind: protocol.KindNone, Version: 6}), ShouldBeTrue)
				So(j.take(), ShouldResemble, []string{
					"yt.stop", "video.stop",
					"yt.hide", "video.hide",
				})

				_, _, ok := g.Active()
				So(ok, ShouldBeFalse)
			})

			Convey("A newer state switches backends", func() {
				So(g.Apply(protocol.MediaState{Kind: protocol.KindTestVideo, URL: "v.mp4", Version: 9}), ShouldBeTrue)
				So(j.take(), ShouldResemble, []string{
					"yt.stop", "video.stop",
					"yt.hide",
					"video.show", "video.start(v.mp4)",
				})
			})
		})

		Convey("Version zero is applied when nothing was applied yet", func() {
			So(g.Version().IsAbsent(), ShouldBeTrue)
			So(g.Apply(protocol.MediaState{Kind: protocol.KindNone, Version: 0}), ShouldBeTrue)
		})

		Convey("Apply hooks see applied states only", func() {
			var seen []int64
			g.OnApply(func(s protocol.MediaState) { seen = append(seen, s.Version) })

			g.Apply(protocol.MediaState{Kind: protocol.KindNone, Version: 1})
			g.Apply(protocol.MediaState{Kind: protocol.KindNone, Version: 1})
			g.Apply(protocol.MediaState{Kind: protocol.KindNone, Version: 2})
			So(seen, ShouldResemble, []int64{1, 2})
		})
	})
}

func TestPending(t *testing.T) {
	Convey("Given a pending gate that is not ready", t, func() {
		ready := make(chan struct{})
		started := make(chan protocol.MediaState, 4)
		p := NewPending(ready, func(s protocol.MediaState) { started <- s })

		Convey("Only the newest start is flushed, once", func() {
			p.Start(protocol.MediaState{URL: "old", Version: 1})
			p.Start(protocol.MediaState{URL: "new", Version: 2})
			So(started, ShouldBeEmpty)

			close(ready)

			select {
			case s := <-started:
				So(s.URL, ShouldEqual, "new")
			case <-time.After(time.Second):
				So("flush", ShouldEqual, "timed out")
			}

			time.Sleep(20 * time.Millisecond)
			So(started, ShouldBeEmpty)
			So(p.Ready(), ShouldBeTrue)

			Convey("Later starts run immediately", func() {
				p.Start(protocol.MediaState{URL: "live", Version: 3})
				So((<-started).URL, ShouldEqual, "live")
			})
		})

		Convey("A cancelled start is never flushed", func() {
			p.Start(protocol.MediaState{URL: "old", Version: 1})
			p.Cancel()
			close(ready)

			time.Sleep(20 * time.Millisecond)
			So(started, ShouldBeEmpty)
		})
	})
}
