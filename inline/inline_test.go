package inline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samber/mo"
	"github.com/shortplay/shortplay/retry"
	"github.com/shortplay/shortplay/session"
	"github.com/shortplay/shortplay/source"
	. "github.com/smartystreets/goconvey/convey"
)

type stubBackend struct {
	title    *source.Title
	failing  map[string]bool
	resolved []string
}

func (s *stubBackend) GetTitle(_ context.Context, _ string, _ int) (*source.Title, error) {
	title := *s.title
	title.Episodes = append([]source.Episode(nil), s.title.Episodes...)
	return &title, nil
}

func (s *stubBackend) ResolveEpisode(_ context.Context, url string) (string, error) {
	if s.failing[url] {
		return "", retry.Permanent(errors.New("gone"))
	}
	s.resolved = append(s.resolved, url)
	return "https://cdn" + url + ".m3u8", nil
}

func fixture() *stubBackend {
	return &stubBackend{
		title: &source.Title{
			ID:           "t1",
			DisplayTitle: "Moonlit Vows",
			Episodes: []source.Episode{
				{Number: 1, ResolvedURL: "https://cdn/ep/1.m3u8", ResolutionSource: "/ep/1"},
				{Number: 2, Title: "The Letter", ResolutionSource: "/ep/2"},
				{Number: 3, ResolutionSource: "/ep/3"},
			},
		},
		failing: map[string]bool{},
	}
}

func testOptions(backend session.Backend, out *bytes.Buffer) *Options {
	opts := session.DefaultOptions()
	opts.Policy = retry.Policy{MaxAttempts: 1}

	return &Options{
		Out:     out,
		Backend: backend,
		Session: opts,
		TitleID: "t1",
		Json:    true,
	}
}

func TestParseEpisodesFilter(t *testing.T) {
	episodes := fixture().title.Episodes

	Convey("Given an episode list", t, func() {
		cases := map[string][]int{
			"first":    {0},
			"last":     {2},
			"all":      {0, 1, 2},
			"2":        {1},
			"2-3":      {1, 2},
			"@letter@": {1},
			"9":        {},
		}

		for description, want := range cases {
			Convey("Selector "+description+" should pick the right episodes", func() {
				filter, err := ParseEpisodesFilter(description)
				So(err, ShouldBeNil)
				So(filter(episodes), ShouldResemble, want)
			})
		}

		Convey("Malformed selectors should be rejected", func() {
			for _, description := range []string{"", "x", "1-y", "@@"} {
				_, err := ParseEpisodesFilter(description)
				So(err, ShouldNotBeNil)
			}
		})

		Convey("An empty list yields nothing", func() {
			filter, _ := ParseEpisodesFilter("first")
			So(filter(nil), ShouldBeEmpty)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a backend with a three episode title", t, func() {
		backend := fixture()
		var out bytes.Buffer
		options := testOptions(backend, &out)

		Convey("Json output should describe the title", func() {
			_, err := Run(context.Background(), options)
			So(err, ShouldBeNil)

			var output Output
			So(json.Unmarshal(out.Bytes(), &output), ShouldBeNil)
			So(output.TitleID, ShouldEqual, "t1")
			So(output.DisplayTitle, ShouldEqual, "Moonlit Vows")
			So(output.Episodes, ShouldHaveLength, 3)
			So(output.Info.Total, ShouldEqual, 3)
			So(output.Failures, ShouldBeEmpty)
		})

		Convey("Resolving should fill in play URLs of the selected episodes only", func() {
			options.Resolve = true
			filter, _ := ParseEpisodesFilter("2")
			options.EpisodesFilter = mo.Some(filter)

			_, err := Run(context.Background(), options)
			So(err, ShouldBeNil)
			So(backend.resolved, ShouldResemble, []string{"/ep/2"})

			var output Output
			So(json.Unmarshal(out.Bytes(), &output), ShouldBeNil)
			So(output.Episodes, ShouldHaveLength, 1)
			So(output.Episodes[0].ResolvedURL, ShouldEqual, "https://cdn/ep/2.m3u8")
			So(output.Info.Loaded, ShouldEqual, 2)
		})

		Convey("Episodes that fail to resolve should be reported", func() {
			options.Resolve = true
			backend.failing["/ep/3"] = true

			_, err := Run(context.Background(), options)
			So(err, ShouldBeNil)

			var output Output
			So(json.Unmarshal(out.Bytes(), &output), ShouldBeNil)
			So(output.Failures, ShouldHaveLength, 1)
			So(output.Failures[0].Kind, ShouldEqual, session.EpisodeUnresolvable)
			So(output.Failures[0].Episode, ShouldEqual, 3)
		})

		Convey("Plain output should list one episode per line", func() {
			options.Json = false
			_, err := Run(context.Background(), options)
			So(err, ShouldBeNil)
			So(out.String(), ShouldStartWith, "1\thttps://cdn/ep/1.m3u8\n2\t/ep/2\n")
		})
	})
}
