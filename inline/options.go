package inline

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shortplay/shortplay/session"
	"github.com/shortplay/shortplay/source"
)

// EpisodesFilter picks episodes out of a title's list and returns their indices.
type EpisodesFilter func([]source.Episode) []int

// Options configure a headless run.
type Options struct {
	Out     io.Writer
	Backend session.Backend
	Session session.Options
	TitleID string
	Json    bool
	// Resolve asks the backend for the play URL of every selected episode that lacks one.
	Resolve        bool
	EpisodesFilter mo.Option[EpisodesFilter]
}

// ParseEpisodesFilter parses an episode selector.
//
//	first, last, all
//	N        episode number N
//	N-M      episode numbers N through M
//	@text@   episodes whose title contains text
func ParseEpisodesFilter(description string) (EpisodesFilter, error) {
	description = strings.TrimSpace(description)

	switch description {
	case "first":
		return func(episodes []source.Episode) []int {
			if len(episodes) == 0 {
				return nil
			}
			return []int{0}
		}, nil
	case "last":
		return func(episodes []source.Episode) []int {
			if len(episodes) == 0 {
				return nil
			}
			return []int{len(episodes) - 1}
		}, nil
	case "all":
		return func(episodes []source.Episode) []int {
			return lo.Range(len(episodes))
		}, nil
	}

	if len(description) > 2 && strings.HasPrefix(description, "@") && strings.HasSuffix(description, "@") {
		sub := strings.ToLower(description[1 : len(description)-1])
		return numbered(func(e source.Episode) bool {
			return strings.Contains(strings.ToLower(e.String()), sub)
		}), nil
	}

	if from, to, ok := strings.Cut(description, "-"); ok {
		a, errA := strconv.ParseUint(from, 10, 16)
		b, errB := strconv.ParseUint(to, 10, 16)
		if errA != nil || errB != nil {
			return nil, fmt.Errorf("invalid episode range: %s", description)
		}
		return numbered(func(e source.Episode) bool {
			return uint64(e.Number) >= a && uint64(e.Number) <= b
		}), nil
	}

	if n, err := strconv.ParseUint(description, 10, 16); err == nil {
		return numbered(func(e source.Episode) bool {
			return uint64(e.Number) == n
		}), nil
	}

	return nil, fmt.Errorf("invalid episode filter: %s", description)
}

func numbered(match func(source.Episode) bool) EpisodesFilter {
	return func(episodes []source.Episode) []int {
		return lo.FilterMap(episodes, func(e source.Episode, i int) (int, bool) {
			return i, match(e)
		})
	}
}
