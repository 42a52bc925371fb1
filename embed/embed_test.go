package embed

import (
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/plst4-cli/plst4/bridge"
	"github.com/plst4-cli/plst4/protocol"
	. "github.com/smartystreets/goconvey/convey"
)

type mount struct {
	slot, frame, src, allow, aspect string
}

type fakeFrame struct {
	ready chan struct{}

	mu       sync.Mutex
	mounts   []mount
	posts    []any
	ops      []string
	handlers map[string]bridge.Handler
}

func newFakeFrame() *fakeFrame {
	return &fakeFrame{
		ready:    make(chan struct{}),
		handlers: map[string]bridge.Handler{},
	}
}

func (f *fakeFrame) Mount(slot, frame, src, allow, aspect string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mounts = append(f.mounts, mount{slot, frame, src, allow, aspect})
	f.ops = append(f.ops, "mount")
	return nil
}

func (f *fakeFrame) Post(_, _ string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, data)
	return nil
}

func (f *fakeFrame) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
	return nil
}

func (f *fakeFrame) Show(string) error  { return f.record("show") }
func (f *fakeFrame) Hide(string) error  { return f.record("hide") }
func (f *fakeFrame) Clear(string) error { return f.record("clear") }

func (f *fakeFrame) Attach(slot string, h bridge.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[slot] = h
}

func (f *fakeFrame) Ready() <-chan struct{} { return f.ready }

func (f *fakeFrame) lastMount() (mount, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.mounts) == 0 {
		return mount{}, false
	}
	return f.mounts[len(f.mounts)-1], true
}

func (f *fakeFrame) mountCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mounts)
}

func (f *fakeFrame) postsCopy() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.posts...)
}

func (f *fakeFrame) opsCopy() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func mounted(f *fakeFrame, n int) bool {
	return eventually(func() bool { return f.mountCount() >= n })
}

func niconicoStatus(frame string, status int) json.RawMessage {
	return json.RawMessage(`{"eventName":"playerStatusChange","playerId":"` + frame + `","data":{"playerStatus":` + string(rune('0'+status)) + `}}`)
}

func TestNiconico(t *testing.T) {
	Convey("Given a niconico player", t, func() {
		f := newFakeFrame()
		var advanced atomic.Int32
		p := NewNiconico(f, func() { advanced.Add(1) })

		So(p.Kind(), ShouldEqual, protocol.KindNiconico)
		So(f.handlers, ShouldContainKey, "2525")

		Convey("Play before the page and the frame are ready", func() {
			p.Start(protocol.MediaState{Kind: protocol.KindNiconico, URL: "https://www.nicovideo.jp/watch/sm9", Version: 1})
			So(f.mountCount(), ShouldEqual, 0)

			close(f.ready)
			So(mounted(f, 1), ShouldBeTrue)

			m, _ := f.lastMount()
			So(m.slot, ShouldEqual, "2525")
			So(m.src, ShouldStartWith, "https://embed.nicovideo.jp/watch/sm9?")
			So(m.src, ShouldContainSubstring, "jsapi=1")
			So(m.src, ShouldContainSubstring, "playerId="+m.frame)
			So(f.postsCopy(), ShouldBeEmpty)

			Convey("The play command is flushed once on load", func() {
				p.OnLoad(m.frame)
				p.OnLoad(m.frame)

				posts := f.postsCopy()
				So(posts, ShouldHaveLength, 1)
				cmd := posts[0].(niconicoCommand)
				So(cmd.EventName, ShouldEqual, "play")
				So(cmd.PlayerID, ShouldEqual, m.frame)
				So(cmd.SourceConnectorType, ShouldEqual, 1)
			})

			Convey("Only the current frame from the niconico origin can advance", func() {
				p.OnLoad(m.frame)

				p.OnMessage(m.frame, "https://evil.example", niconicoStatus(m.frame, 4))
				p.OnMessage("other", niconicoOrigin, niconicoStatus("other", 4))
				p.OnMessage(m.frame, niconicoOrigin, niconicoStatus("other", 4))
				p.OnMessage(m.frame, niconicoOrigin, niconicoStatus(m.frame, 2))
				So(advanced.Load(), ShouldEqual, 0)

				p.OnMessage(m.frame, niconicoOrigin, niconicoStatus(m.frame, 4))
				So(advanced.Load(), ShouldEqual, 1)
			})

			Convey("Errors advance", func() {
				p.OnMessage(m.frame, niconicoOrigin, json.RawMessage(`{"eventName":"error","playerId":"`+m.frame+`"}`))
				So(advanced.Load(), ShouldEqual, 1)
			})

			Convey("Stop pauses and rewinds", func() {
				p.OnLoad(m.frame)
				p.Stop()

				posts := f.postsCopy()
				So(posts, ShouldHaveLength, 3)
				So(posts[1].(niconicoCommand).EventName, ShouldEqual, "pause")
				So(posts[2].(niconicoCommand).EventName, ShouldEqual, "seek")
			})

			Convey("Hide clears the frame", func() {
				p.Hide()
				So(f.opsCopy(), ShouldResemble, []string{"mount", "hide", "clear"})

				p.OnMessage(m.frame, niconicoOrigin, niconicoStatus(m.frame, 4))
				So(advanced.Load(), ShouldEqual, 0)
			})

			Convey("The page that made the bridge ready does not mount it twice", func() {
				p.OnPage(true)
				time.Sleep(20 * time.Millisecond)
				So(f.mountCount(), ShouldEqual, 1)

				m2, _ := f.lastMount()
				So(m2.frame, ShouldEqual, m.frame)
			})

			Convey("A reconnected page gets the embed mounted again", func() {
				p.OnPage(false)
				So(f.mountCount(), ShouldEqual, 2)

				m2, _ := f.lastMount()
				So(m2.frame, ShouldNotEqual, m.frame)
			})
		})

		Convey("Only the newest start before readiness is mounted", func() {
			p.Start(protocol.MediaState{Kind: protocol.KindNiconico, URL: "https://www.nicovideo.jp/watch/sm1", Version: 1})
			p.Start(protocol.MediaState{Kind: protocol.KindNiconico, URL: "https://www.nicovideo.jp/watch/sm2", Version: 2})
			close(f.ready)

			So(mounted(f, 1), ShouldBeTrue)
			time.Sleep(20 * time.Millisecond)
			So(f.mountCount(), ShouldEqual, 1)

			m, _ := f.lastMount()
			So(m.src, ShouldContainSubstring, "/watch/sm2?")
		})

		Convey("The first page shows a slot made visible before it connected", func() {
			p.Show()
			p.Start(protocol.MediaState{Kind: protocol.KindNiconico, URL: "https://www.nicovideo.jp/watch/sm1", Version: 1})
			close(f.ready)
			So(mounted(f, 1), ShouldBeTrue)

			p.OnPage(true)
			So(f.opsCopy(), ShouldContain, "show")
			So(f.mountCount(), ShouldEqual, 1)
		})

		Convey("Stop before readiness drops the start", func() {
			p.Start(protocol.MediaState{Kind: protocol.KindNiconico, URL: "https://www.nicovideo.jp/watch/sm1", Version: 1})
			p.Stop()
			close(f.ready)

			time.Sleep(20 * time.Millisecond)
			So(f.mountCount(), ShouldEqual, 0)
		})
	})
}

func TestYouTube(t *testing.T) {
	Convey("Given a youtube player on a ready page", t, func() {
		f := newFakeFrame()
		close(f.ready)
		var advanced atomic.Int32
		p := NewYouTube(f, func() { advanced.Add(1) })

		p.Start(protocol.MediaState{Kind: protocol.KindYouTube, URL: "https://youtu.be/dQw4w9WgXcQ", AspectRatio: "16/9", Version: 3})
		So(mounted(f, 1), ShouldBeTrue)
		m, _ := f.lastMount()

		So(m.slot, ShouldEqual, "yt")
		So(m.aspect, ShouldEqual, "16/9")
		So(m.src, ShouldStartWith, "https://www.youtube.com/embed/dQw4w9WgXcQ?")
		So(m.src, ShouldContainSubstring, "enablejsapi=1")

		Convey("Load posts the listening greeting before play", func() {
			p.OnLoad(m.frame)

			posts := f.postsCopy()
			So(posts, ShouldHaveLength, 2)
			So(posts[0], ShouldContainSubstring, `"event":"listening"`)
			So(posts[0], ShouldContainSubstring, `"id":"`+m.frame+`"`)
			So(posts[1], ShouldContainSubstring, `"func":"playVideo"`)
		})

		Convey("The ended state advances", func() {
			p.OnMessage(m.frame, youtubeOrigin, json.RawMessage(`"{\"event\":\"infoDelivery\",\"info\":{\"currentTime\":3}}"`))
			So(advanced.Load(), ShouldEqual, 0)

			p.OnMessage(m.frame, youtubeOrigin, json.RawMessage(`"{\"event\":\"infoDelivery\",\"info\":{\"playerState\":1}}"`))
			So(advanced.Load(), ShouldEqual, 0)

			p.OnMessage(m.frame, youtubeOrigin, json.RawMessage(`"{\"event\":\"infoDelivery\",\"info\":{\"playerState\":0}}"`))
			So(advanced.Load(), ShouldEqual, 1)

			p.OnMessage(m.frame, youtubeOrigin, json.RawMessage(`{"event":"onStateChange","info":0}`))
			So(advanced.Load(), ShouldEqual, 2)
		})

		Convey("Garbage is ignored", func() {
			p.OnMessage(m.frame, youtubeOrigin, json.RawMessage(`"not json"`))
			So(advanced.Load(), ShouldEqual, 0)
		})

		Convey("Hide keeps the frame", func() {
			p.Hide()
			So(f.opsCopy(), ShouldResemble, []string{"mount", "hide"})
		})
	})

	Convey("YouTube ids", t, func() {
		for locator, want := range map[string]string{
			"https://youtu.be/abc":                    "abc",
			"https://www.youtube.com/watch?v=abc&t=3": "abc",
			"https://music.youtube.com/watch?v=abc":   "abc",
		} {
			id, err := youtubeID(locator)
			So(err, ShouldBeNil)
			So(id, ShouldEqual, want)
		}

		_, err := youtubeID("https://example.com/watch?v=abc")
		So(err, ShouldNotBeNil)
		_, err = youtubeID("https://www.youtube.com/feed")
		So(err, ShouldNotBeNil)
	})
}

func TestSoundCloud(t *testing.T) {
	Convey("Given a soundcloud player on a ready page", t, func() {
		f := newFakeFrame()
		close(f.ready)
		var advanced atomic.Int32
		p := NewSoundCloud(f, func() { advanced.Add(1) })

		p.Start(protocol.MediaState{Kind: protocol.KindSoundCloud, URL: "https://soundcloud.com/artist/track", Version: 1})
		So(mounted(f, 1), ShouldBeTrue)
		m, _ := f.lastMount()

		So(m.src, ShouldStartWith, "https://w.soundcloud.com/player/?")
		So(m.src, ShouldContainSubstring, "url=https%3A%2F%2Fsoundcloud.com%2Fartist%2Ftrack")
		p.OnLoad(m.frame)

		Convey("The ready message subscribes to finish and error", func() {
			p.OnMessage(m.frame, soundcloudOrigin, json.RawMessage(`"{\"method\":\"ready\"}"`))

			posts := f.postsCopy()
			So(posts, ShouldHaveLength, 3)
			So(posts[1], ShouldContainSubstring, `"value":"finish"`)
			So(posts[2], ShouldContainSubstring, `"value":"error"`)
			So(advanced.Load(), ShouldEqual, 0)
		})

		Convey("Finish advances", func() {
			p.OnMessage(m.frame, soundcloudOrigin, json.RawMessage(`"{\"method\":\"finish\"}"`))
			So(advanced.Load(), ShouldEqual, 1)
		})

		Convey("Stop seeks to the start", func() {
			p.Stop()
			posts := f.postsCopy()
			So(strings.Contains(posts[len(posts)-1].(string), `"method":"seekTo"`), ShouldBeTrue)
			So(posts[len(posts)-1], ShouldContainSubstring, `"value":0`)
		})
	})
}

func TestNiconicoID(t *testing.T) {
	Convey("Niconico ids are taken from watch urls", t, func() {
		id, err := niconicoID("https://www.nicovideo.jp/watch/sm9?from=3")
		So(err, ShouldBeNil)
		So(id, ShouldEqual, "sm9")

		_, err = niconicoID("https://www.nicovideo.jp/watch/")
		So(err, ShouldNotBeNil)
	})
}
