package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/shortplay/shortplay/config"
	"github.com/shortplay/shortplay/filesystem"
	"github.com/shortplay/shortplay/key"
	"github.com/shortplay/shortplay/source"
	"github.com/shortplay/shortplay/where"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseValue(t *testing.T) {
	Convey("Given typed config fields", t, func() {
		Convey("Integers should be parsed", func() {
			v, err := parseValue(config.Default[key.SessionMaxRetry], []string{"5"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 5)

			_, err = parseValue(config.Default[key.SessionMaxRetry], []string{"five"})
			So(err, ShouldNotBeNil)
		})

		Convey("Booleans should be parsed", func() {
			v, err := parseValue(config.Default[key.SessionAutoAdvance], []string{"false"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, false)

			_, err = parseValue(config.Default[key.SessionAutoAdvance], []string{"maybe"})
			So(err, ShouldNotBeNil)
		})

		Convey("Strings should be taken as is", func() {
			v, err := parseValue(config.Default[key.BackendURL], []string{"http://10.0.0.2:5000"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "http://10.0.0.2:5000")
		})

		Convey("A missing value should be rejected", func() {
			_, err := parseValue(config.Default[key.BackendURL], nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestClosestKey(t *testing.T) {
	Convey("A mistyped key should suggest the intended one", t, func() {
		So(closestKey("session.max_retyr"), ShouldEqual, key.SessionMaxRetry)
		So(closestKey("backend.ulr"), ShouldEqual, key.BackendURL)
	})
}

func TestRankResults(t *testing.T) {
	Convey("Given search results in backend order", t, func() {
		results := []source.Result{
			{ID: "1", Title: "The CEO's Hidden Twins"},
			{ID: "2", Title: "Moonlit Vows"},
			{ID: "3", Title: "Moon Over Shanghai"},
		}

		Convey("Matching titles come first, closest first", func() {
			ranked := rankResults("moonlit", results)
			So(ranked[0].ID, ShouldEqual, "2")
			So(ranked, ShouldHaveLength, 3)
		})

		Convey("Non-matching titles keep their order at the end", func() {
			ranked := rankResults("moon", results)
			So(ranked[len(ranked)-1].ID, ShouldEqual, "1")
		})

		Convey("Nothing is lost when no title matches", func() {
			ranked := rankResults("zzz", results)
			So(ranked, ShouldResemble, results)
		})
	})
}

func TestDescribeResult(t *testing.T) {
	Convey("Results should show their episode summary and genres", t, func() {
		So(describeResult(source.Result{Title: "Moonlit Vows"}), ShouldEqual, "Moonlit Vows")
		So(describeResult(source.Result{Title: "Moonlit Vows", Episodes: "30 episodes", Genres: "Romance"}),
			ShouldEqual, "Moonlit Vows (30 episodes) - Romance")
	})
}

func TestWhere(t *testing.T) {
	Convey("Given a custom config directory", t, func() {
		filesystem.SetMemMapFs()
		t.Setenv(where.EnvConfigPath, filepath.Join("/", "shortplay-test"))

		var out bytes.Buffer
		whereCmd.SetOut(&out)
		expected := filepath.Join("/", "shortplay-test", "history.json") + "\n"

		Convey("where --history should print the history file", func() {
			rootCmd.SetArgs([]string{"where", "--history"})
			So(rootCmd.Execute(), ShouldBeNil)
			So(out.String(), ShouldEqual, expected)
		})

		Convey("The short flag should not clash with inherited ones", func() {
			So(whereCmd.InheritedFlags().Lookup("write-history").Shorthand, ShouldEqual, "H")
			So(whereCmd.Flags().Lookup("history").Shorthand, ShouldEqual, "s")

			rootCmd.SetArgs([]string{"where", "-s"})
			So(rootCmd.Execute(), ShouldBeNil)
			So(out.String(), ShouldEqual, expected)
		})
	})
}
