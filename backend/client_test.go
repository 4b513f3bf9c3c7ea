package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shortplay/shortplay/retry"
	"github.com/shortplay/shortplay/source"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeBackend struct {
	*httptest.Server
	videoQueries  chan string
	resolveBodies chan string
	requests      atomic.Int32
}

func newFakeBackend() *fakeBackend {
	f := &fakeBackend{
		videoQueries:  make(chan string, 8),
		resolveBodies: make(chan string, 8),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /video/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.videoQueries <- r.URL.RawQuery

		switch r.PathValue("id") {
		case "missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"not found"}`))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`<html>oops</html>`))
		default:
			_, _ = w.Write([]byte(`{
				"success": true,
				"data": {
					"video_title": " Revenge of the Heiress ",
					"m3u8_url": "https://cdn/main.m3u8",
					"tags": "romance",
					"episodes": [
						{"number": "1", "title": "Ep 1", "url": "/ep/1", "play_url": "https://cdn/1.m3u8"},
						{"number": "Ep 2", "url": "/ep/2", "play_url": null},
						{"number": 3, "url": "/ep/3"},
						{"number": "trailer", "url": "/ep/t"}
					]
				}
			}`))
		}
	})
	mux.HandleFunc("POST /episode-play-url", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		var req resolveRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.resolveBodies <- req.EpisodeURL

		switch req.EpisodeURL {
		case "/ep/none":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"no play url"}`))
		case "/ep/empty":
			_, _ = w.Write([]byte(`{"success":true,"play_url":""}`))
		default:
			_, _ = w.Write([]byte(`{"success":true,"play_url":"https://cdn` + req.EpisodeURL + `.m3u8"}`))
		}
	})
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if r.URL.Query().Get("q") == "nothing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"no results"}`))
			return
		}
		_, _ = w.Write([]byte(`{"search_term":"ceo","item_count":2,"items":[
			{"video_id":"a1","title":"The CEO","episodes":"30 episodes","genres":"romance"},
			{"video_id":"b2","title":"CEO Returns","image_url":"https://img/b2.jpg"}
		]}`))
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","version":"2.0.0","config":{"max_episodes":20}}`))
	})

	f.Server = httptest.NewServer(mux)
	return f
}

func TestGetTitle(t *testing.T) {
	Convey("Given a backend", t, func() {
		server := newFakeBackend()
		defer server.Close()

		client, err := New(server.URL)
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("GetTitle maps the payload onto the domain model", func() {
			title, err := client.GetTitle(ctx, "abc", 1)
			So(err, ShouldBeNil)
			So(<-server.videoQueries, ShouldEqual, "async=true&max_episodes=1")

			So(title.ID, ShouldEqual, "abc")
			So(title.DisplayTitle, ShouldEqual, "Revenge of the Heiress")
			So(title.PrimaryPlayURL, ShouldEqual, "https://cdn/main.m3u8")
			So(title.Tags, ShouldEqual, "romance")
			So(title.Episodes, ShouldResemble, []source.Episode{
				{Number: 1, Title: "Ep 1", ResolvedURL: "https://cdn/1.m3u8", ResolutionSource: "/ep/1"},
				{Number: 2, ResolutionSource: "/ep/2"},
				{Number: 3, ResolutionSource: "/ep/3"},
				{Number: 4, ResolutionSource: "/ep/t"},
			})
		})

		Convey("max_episodes is clamped", func() {
			_, _ = client.GetTitle(ctx, "abc", 500)
			So(<-server.videoQueries, ShouldEqual, "async=true&max_episodes=100")
		})

		Convey("A 404 is permanent and carries the message", func() {
			_, err := client.GetTitle(ctx, "missing", 1)
			So(retry.IsPermanent(err), ShouldBeTrue)

			var status *StatusError
			So(errors.As(err, &status), ShouldBeTrue)
			So(status.Code, ShouldEqual, http.StatusNotFound)
			So(status.Message, ShouldEqual, "not found")
		})

		Convey("A 500 with a non-JSON body is temporary", func() {
			_, err := client.GetTitle(ctx, "broken", 1)
			So(err, ShouldNotBeNil)
			So(retry.IsPermanent(err), ShouldBeFalse)
		})

		Convey("Invalid ids never reach the network", func() {
			_, err := client.GetTitle(ctx, "../etc", 1)
			So(errors.Is(err, source.ErrInvalidID), ShouldBeTrue)
			So(retry.IsPermanent(err), ShouldBeTrue)
			So(server.requests.Load(), ShouldEqual, 0)
		})
	})
}

func TestResolveEpisode(t *testing.T) {
	Convey("Given a backend", t, func() {
		server := newFakeBackend()
		defer server.Close()

		client, _ := New(server.URL + "/")
		ctx := context.Background()

		Convey("The episode URL is posted and the play URL returned", func() {
			u, err := client.ResolveEpisode(ctx, "/ep/2")
			So(err, ShouldBeNil)
			So(u, ShouldEqual, "https://cdn/ep/2.m3u8")
			So(<-server.resolveBodies, ShouldEqual, "/ep/2")
		})

		Convey("success:false is reported", func() {
			_, err := client.ResolveEpisode(ctx, "/ep/none")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "no play url")
		})

		Convey("An empty play URL is an error", func() {
			_, err := client.ResolveEpisode(ctx, "/ep/empty")
			So(errors.Is(err, ErrNoPlayURL), ShouldBeTrue)
		})

		Convey("A cancelled context aborts the request", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := client.ResolveEpisode(cancelled, "/ep/2")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestSearch(t *testing.T) {
	Convey("Given a backend", t, func() {
		server := newFakeBackend()
		defer server.Close()

		client, _ := New(server.URL)
		ctx := context.Background()

		Convey("Results are decoded", func() {
			results, err := client.Search(ctx, "ceo")
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, 2)
			So(results[0], ShouldResemble, source.Result{ID: "a1", Title: "The CEO", Episodes: "30 episodes", Genres: "romance"})
			So(results[1].ImageURL, ShouldEqual, "https://img/b2.jpg")
		})

		Convey("No match is an empty result, not an error", func() {
			results, err := client.Search(ctx, "nothing")
			So(err, ShouldBeNil)
			So(results, ShouldBeEmpty)
		})

		Convey("Queries the backend would reject are refused locally", func() {
			for _, q := range []string{"", "  ", "<script>", "javascript:alert(1)"} {
				_, err := client.Search(ctx, q)
				So(errors.Is(err, ErrInvalidQuery), ShouldBeTrue)
			}
			So(server.requests.Load(), ShouldEqual, 0)
		})
	})
}

func TestHealthAndRate(t *testing.T) {
	Convey("Given a paced client", t, func() {
		server := newFakeBackend()
		defer server.Close()

		client, _ := New(server.URL, WithRate(60))

		Convey("Health decodes the status", func() {
			h, err := client.Health(context.Background())
			So(err, ShouldBeNil)
			So(h.Status, ShouldEqual, "healthy")
			So(h.Config.MaxEpisodes, ShouldEqual, 20)
		})

		Convey("Requests beyond the burst wait for the limiter and honour the context", func() {
			for i := 0; i < 5; i++ {
				_, err := client.Health(context.Background())
				So(err, ShouldBeNil)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			_, err := client.Health(ctx)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("New rejects non-http URLs", t, func() {
		_, err := New("ftp://example.com")
		So(err, ShouldNotBeNil)
	})
}
