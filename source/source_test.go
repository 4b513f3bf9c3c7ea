package source

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEpisode(t *testing.T) {
	Convey("Given episodes in different resolution states", t, func() {
		resolved := Episode{Number: 1, ResolvedURL: "https://cdn/1.m3u8"}
		pending := Episode{Number: 2, ResolutionSource: "/episode/2"}
		empty := Episode{Number: 3, Title: "Finale"}

		Convey("Resolved only holds with a media URL", func() {
			So(resolved.Resolved(), ShouldBeTrue)
			So(pending.Resolved(), ShouldBeFalse)
		})

		Convey("Playable needs either URL", func() {
			So(resolved.Playable(), ShouldBeTrue)
			So(pending.Playable(), ShouldBeTrue)
			So(empty.Playable(), ShouldBeFalse)
		})

		Convey("String prefers the title", func() {
			So(empty.String(), ShouldEqual, "Finale")
			So(pending.String(), ShouldEqual, "Episode 2")
		})
	})
}

func TestTitle(t *testing.T) {
	Convey("Title", t, func() {
		title := Title{ID: "abc"}
		So(title.String(), ShouldEqual, "abc")
		So(title.HasDirectURL(), ShouldBeFalse)

		title.DisplayTitle = "Revenge"
		title.PrimaryPlayURL = "https://cdn/a.mp4"
		So(title.String(), ShouldEqual, "Revenge")
		So(title.HasDirectURL(), ShouldBeTrue)
	})
}

func TestValidateID(t *testing.T) {
	Convey("ValidateID", t, func() {
		So(ValidateID("abc_123-X"), ShouldBeNil)

		for _, bad := range []string{"", "a/b", "a b", "../x", strings.Repeat("a", 51)} {
			err := ValidateID(bad)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrInvalidID), ShouldBeTrue)
		}

		So(ValidateID(strings.Repeat("a", 50)), ShouldBeNil)
	})
}
