package playlist

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/shortplay/shortplay/source"
	. "github.com/smartystreets/goconvey/convey"
)

func episodes(n int) []source.Episode {
	return lo.Times(n, func(i int) source.Episode {
		return source.Episode{Number: i + 1, ResolutionSource: fmt.Sprintf("/ep/%d", i+1)}
	})
}

func TestCache(t *testing.T) {
	Convey("Given a cache seeded with a single resolved episode", t, func() {
		c := New()
		c.Replace([]source.Episode{{Number: 1, ResolvedURL: "u1"}})

		Convey("It holds one episode and is not complete", func() {
			So(c.Len(), ShouldEqual, 1)
			So(c.IsComplete(), ShouldBeFalse)
			So(c.Get(0).MustGet().ResolvedURL, ShouldEqual, "u1")
			So(c.Get(1).IsAbsent(), ShouldBeTrue)
			So(c.Get(-1).IsAbsent(), ShouldBeTrue)
		})

		Convey("When a full list is merged", func() {
			full := []source.Episode{
				{Number: 1, ResolutionSource: "/ep/1", Title: "Pilot"},
				{Number: 2, ResolutionSource: "/ep/2"},
				{Number: 3},
			}
			c.Merge(full)

			Convey("Unknown episodes are appended in order", func() {
				So(c.Len(), ShouldEqual, 3)
				So(c.Get(1).MustGet().Number, ShouldEqual, 2)
				So(c.Get(2).MustGet().Number, ShouldEqual, 3)
			})

			Convey("A known episode keeps its URL and gains missing fields", func() {
				first := c.Get(0).MustGet()
				So(first.ResolvedURL, ShouldEqual, "u1")
				So(first.ResolutionSource, ShouldEqual, "/ep/1")
				So(first.Title, ShouldEqual, "Pilot")
			})

			Convey("Merging the same list again changes nothing", func() {
				before := c.Snapshot()
				c.Merge(full)
				So(c.Snapshot(), ShouldResemble, before)
			})
		})

		Convey("A merged list never clears a resolved URL", func() {
			c.Merge([]source.Episode{{Number: 1, ResolvedURL: ""}})
			So(c.Get(0).MustGet().ResolvedURL, ShouldEqual, "u1")
		})

		Convey("Merging a shorter list keeps the longer contents", func() {
			c.Merge(episodes(8))
			c.Merge(episodes(2))
			So(c.Len(), ShouldEqual, 8)
		})
	})

	Convey("SetResolvedURL", t, func() {
		c := New()
		c.Replace(episodes(3))

		So(c.SetResolvedURL(1, "u2"), ShouldBeTrue)
		So(c.Get(1).MustGet().ResolvedURL, ShouldEqual, "u2")

		Convey("Setting the same value is a no-op", func() {
			So(c.SetResolvedURL(1, "u2"), ShouldBeFalse)
		})

		Convey("A newer URL overwrites", func() {
			So(c.SetResolvedURL(1, "u2b"), ShouldBeTrue)
			So(c.Get(1).MustGet().ResolvedURL, ShouldEqual, "u2b")
		})

		Convey("Empty URLs and bad indices are ignored", func() {
			So(c.SetResolvedURL(1, ""), ShouldBeFalse)
			So(c.SetResolvedURL(3, "x"), ShouldBeFalse)
			So(c.SetResolvedURL(-1, "x"), ShouldBeFalse)
			So(c.Get(1).MustGet().ResolvedURL, ShouldEqual, "u2")
		})

		Convey("ResolvedCount follows the writes", func() {
			So(c.ResolvedCount(), ShouldEqual, 1)
		})
	})

	Convey("Completeness", t, func() {
		c := New()

		Convey("Five episodes are not enough", func() {
			c.Replace(episodes(5))
			So(c.IsComplete(), ShouldBeFalse)
		})

		Convey("Six episodes are", func() {
			c.Replace(episodes(6))
			So(c.IsComplete(), ShouldBeTrue)
		})

		Convey("A successful full merge marks even a short title complete", func() {
			c.Replace(episodes(1))
			c.Merge(episodes(3))
			c.MarkComplete()
			So(c.IsComplete(), ShouldBeTrue)

			Convey("and Replace resets it", func() {
				c.Replace(episodes(1))
				So(c.IsComplete(), ShouldBeFalse)
			})
		})
	})

	Convey("IndexOf finds episodes by number", t, func() {
		c := New()
		c.Replace(episodes(4))
		So(c.IndexOf(3).MustGet(), ShouldEqual, 2)
		So(c.IndexOf(9).IsAbsent(), ShouldBeTrue)
	})

	Convey("Concurrent merges and reads are safe", t, func() {
		c := New()
		c.Replace(episodes(1))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				c.Merge(episodes(20))
			}()
			go func(i int) {
				defer wg.Done()
				_ = c.Get(i)
				_ = c.Len()
			}(i)
		}
		wg.Wait()

		So(c.Len(), ShouldEqual, 20)
	})
}

func TestMergeAssociative(t *testing.T) {
	Convey("Given two overlapping lists in different orders", t, func() {
		l1 := []source.Episode{
			{Number: 4, ResolutionSource: "/ep/4"},
			{Number: 2, ResolvedURL: "u2"},
			{Number: 1, Title: "Pilot"},
		}
		l2 := []source.Episode{
			{Number: 3, ResolutionSource: "/ep/3"},
			{Number: 1, ResolutionSource: "/ep/1", ResolvedURL: "u1"},
			{Number: 2, ResolvedURL: "other", ResolutionSource: "/ep/2"},
			{Number: 5},
		}
		seed := []source.Episode{{Number: 2}, {Number: 6, ResolvedURL: "u6"}}

		byNumber := func(c *Cache) map[int]source.Episode {
			return lo.SliceToMap(c.Snapshot(), func(e source.Episode) (int, source.Episode) {
				return e.Number, e
			})
		}

		Convey("Merging one after the other equals merging their union once", func() {
			stepwise := New()
			stepwise.Replace(seed)
			stepwise.Merge(l1)
			stepwise.Merge(l2)

			once := New()
			once.Replace(seed)
			once.Merge(slices.Concat(l1, l2))

			So(stepwise.Len(), ShouldEqual, 6)
			So(byNumber(stepwise), ShouldResemble, byNumber(once))

			numbers := lo.Keys(byNumber(stepwise))
			slices.Sort(numbers)
			So(numbers, ShouldResemble, []int{1, 2, 3, 4, 5, 6})
		})

		Convey("Earlier URLs win whichever way the lists are grouped", func() {
			c := New()
			c.Replace(seed)
			c.Merge(l1)
			c.Merge(l2)

			merged := byNumber(c)
			So(merged[2].ResolvedURL, ShouldEqual, "u2")
			So(merged[2].ResolutionSource, ShouldEqual, "/ep/2")
			So(merged[1].ResolvedURL, ShouldEqual, "u1")
			So(merged[1].Title, ShouldEqual, "Pilot")
			So(merged[6].ResolvedURL, ShouldEqual, "u6")
		})
	})
}
