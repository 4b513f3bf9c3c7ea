package player

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMimeTypeOf(t *testing.T) {
	Convey("MimeTypeOf", t, func() {
		So(MimeTypeOf("https://cdn.example/a/index.m3u8"), ShouldEqual, MimeHLS)
		So(MimeTypeOf("https://cdn.example/a/index.M3U8?token=1.mp4"), ShouldEqual, MimeHLS)
		So(MimeTypeOf("https://cdn.example/ep1.mp4"), ShouldEqual, MimeMP4)
		So(MimeTypeOf("https://cdn.example/manifest.mpd"), ShouldEqual, MimeDASH)
		So(MimeTypeOf("https://cdn.example/play?id=3"), ShouldEqual, MimeAny)
	})
}

func TestTranslate(t *testing.T) {
	Convey("mpv lines translate to sink events", t, func() {
		cases := []struct {
			line string
			want Event
		}{
			{`{"event":"playback-restart"}`, Event{Kind: Ready}},
			{`{"event":"end-file","reason":"eof"}`, Event{Kind: Ended}},
			{`{"event":"end-file","reason":"error","file_error":"loading failed"}`, Event{Kind: Error, Detail: "loading failed"}},
			{`{"event":"end-file","reason":"error"}`, Event{Kind: Error, Detail: "playback failed"}},
			{`{"event":"property-change","id":1,"name":"paused-for-cache","data":true}`, Event{Kind: Waiting}},
			{`{"event":"property-change","id":1,"name":"paused-for-cache","data":false}`, Event{Kind: Ready}},
			{`{"event":"shutdown"}`, Event{Kind: Closed}},
		}

		for _, c := range cases {
			got, ok := translate([]byte(c.line))
			So(ok, ShouldBeTrue)
			So(got, ShouldResemble, c.want)
		}

		Convey("Replies and other events are dropped", func() {
			for _, line := range []string{
				`{"request_id":3,"error":"success","data":null}`,
				`{"event":"end-file","reason":"stop"}`,
				`{"event":"file-loaded"}`,
				`not json`,
			} {
				_, ok := translate([]byte(line))
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestSanitize(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		u, err := sanitizeMediaTarget("  https://cdn/x.m3u8 ")
		So(err, ShouldBeNil)
		So(u, ShouldEqual, "https://cdn/x.m3u8")

		for _, bad := range []string{"", "--script=evil.lua", "file:///etc/passwd", "https://cdn/x\n--vo=null"} {
			_, err := sanitizeMediaTarget(bad)
			So(err, ShouldNotBeNil)
		}
	})

	Convey("sanitizeTitle flattens control characters", t, func() {
		So(sanitizeTitle("Ep 1\n\tFinale\x00 "), ShouldEqual, "Ep 1  Finale")
	})
}

func TestNull(t *testing.T) {
	Convey("Given a headless sink with a subscriber", t, func() {
		sink := NewNull()
		var got []Event
		unsubscribe := sink.Subscribe(func(e Event) { got = append(got, e) })

		Convey("SetSource reports Ready", func() {
			So(sink.SetSource("https://cdn/1.mp4", MimeMP4), ShouldBeNil)
			So(sink.Source(), ShouldEqual, "https://cdn/1.mp4")
			So(got, ShouldResemble, []Event{{Kind: Ready}})
		})

		Convey("Play and Pause toggle playback", func() {
			So(sink.Play(), ShouldBeNil)
			So(sink.Playing(), ShouldBeTrue)
			So(sink.Pause(), ShouldBeNil)
			So(sink.Playing(), ShouldBeFalse)
		})

		Convey("Unsubscribed callbacks stop receiving", func() {
			unsubscribe()
			unsubscribe()
			sink.End()
			So(got, ShouldBeEmpty)
		})

		Convey("A disposed sink rejects new sources", func() {
			So(sink.Dispose(), ShouldBeNil)
			So(sink.SetSource("https://cdn/2.mp4", MimeMP4), ShouldEqual, ErrDisposed)
			sink.End()
			So(got, ShouldBeEmpty)
		})
	})
}

// fakeMPV serves the JSON-IPC protocol on a unix socket well enough for the client code.
func fakeMPV(socket string, script func(conn net.Conn, cmd ipcCommand)) (net.Listener, error) {
	l, err := net.Listen("unix", socket)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				scanner := bufio.NewScanner(conn)
				for scanner.Scan() {
					var cmd ipcCommand
					if json.Unmarshal(scanner.Bytes(), &cmd) == nil {
						script(conn, cmd)
					}
				}
			}(conn)
		}
	}()

	return l, nil
}

func writeLine(conn net.Conn, v any) {
	b, _ := json.Marshal(v)
	_, _ = conn.Write(append(b, '\n'))
}

func TestIPC(t *testing.T) {
	Convey("Given a fake mpv socket", t, func() {
		dir, err := os.MkdirTemp("", "sp")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)
		socket := filepath.Join(dir, "mpv.sock")

		l, err := fakeMPV(socket, func(conn net.Conn, cmd ipcCommand) {
			switch cmd.Command[0] {
			case "get_property":
				// an unrelated broadcast event arrives before the reply
				writeLine(conn, map[string]any{"event": "file-loaded"})
				writeLine(conn, map[string]any{"request_id": cmd.RequestID, "error": "success", "data": 12.5})
			case "observe_property":
				writeLine(conn, map[string]any{"request_id": cmd.RequestID, "error": "success"})
				writeLine(conn, map[string]any{"event": "playback-restart"})
				writeLine(conn, map[string]any{"event": "end-file", "reason": "eof"})
			default:
				writeLine(conn, map[string]any{"request_id": cmd.RequestID, "error": "invalid parameter"})
			}
		})
		So(err, ShouldBeNil)
		defer l.Close()

		Convey("A reply is matched by request id", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			data, err := doSendCommand(ctx, socket, []any{"get_property", "time-pos"})
			So(err, ShouldBeNil)
			So(data, ShouldEqual, 12.5)
		})

		Convey("mpv errors are surfaced", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			_, err := doSendCommand(ctx, socket, []any{"loadfile"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "invalid parameter")
		})

		Convey("The event listener forwards translated events", func() {
			events := make(chan Event, 4)
			listener := NewEventListener(socket, func(e Event) { events <- e })
			So(listener.Start(), ShouldBeNil)
			defer listener.Stop()

			var got []Event
			timeout := time.After(2 * time.Second)
			for len(got) < 2 {
				select {
				case e := <-events:
					got = append(got, e)
				case <-timeout:
					t.Fatal("timed out waiting for events")
				}
			}

			So(got, ShouldResemble, []Event{{Kind: Ready}, {Kind: Ended}})
		})
	})
}

func TestMPVBeforeStart(t *testing.T) {
	Convey("An mpv sink that never loaded a source", t, func() {
		m := NewMPV("Title\n")

		So(m.Play(), ShouldEqual, ErrNotRunning)
		So(m.Pause(), ShouldEqual, ErrNotRunning)
		So(m.Wait(), ShouldBeNil)
		So(m.Dispose(), ShouldBeNil)
		So(m.SetSource("https://cdn/1.mp4", MimeMP4), ShouldEqual, ErrDisposed)

		Convey("rejects flag-like sources before touching the process", func() {
			fresh := NewMPV("t")
			So(fresh.SetSource("--vo=null", MimeAny), ShouldNotBeNil)
			So(fresh.Wait(), ShouldBeNil)
		})
	})
}
