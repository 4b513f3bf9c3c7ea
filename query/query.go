// Package query remembers search terms and suggests them back while typing.
package query

import (
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shortplay/shortplay/filesystem"
	"github.com/shortplay/shortplay/key"
	"github.com/shortplay/shortplay/where"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

type queryRecord struct {
	Rank     int       `json:"rank"`
	Query    string    `json:"query"`
	LastUsed time.Time `json:"last_used"`
}

var cacher = gache.New[map[string]*queryRecord](
	&gache.Options{
		Path:       where.Queries(),
		FileSystem: &filesystem.GacheFs{},
	},
)

var (
	suggestionMu    sync.Mutex
	suggestionCache = make(map[string][]*queryRecord)
)

// Remember records a search term, adding weight to its rank if it is already known.
func Remember(q string, weight int) error {
	q = sanitize(q)
	if q == "" {
		return nil
	}

	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		cached = make(map[string]*queryRecord)
	}

	if record, ok := cached[q]; ok {
		record.Rank += weight
		record.LastUsed = time.Now()
	} else {
		cached[q] = &queryRecord{Rank: weight, Query: q, LastUsed: time.Now()}
	}

	invalidate()
	return cacher.Set(cached)
}

// Forget removes a search term.
func Forget(q string) error {
	cached, expired, err := cacher.Get()
	if err != nil || expired || cached == nil {
		return err
	}

	delete(cached, sanitize(q))
	invalidate()
	return cacher.Set(cached)
}

// Suggest returns the best known term matching a partial input.
func Suggest(q string) mo.Option[string] {
	suggestions := SuggestMany(q)
	if len(suggestions) == 0 {
		return mo.None[string]()
	}
	return mo.Some(suggestions[0])
}

// SuggestMany returns known terms fuzzily matching a partial input, highest rank first.
// It returns nothing when suggestions are disabled.
func SuggestMany(q string) []string {
	if !viper.GetBool(key.SearchShowQuerySuggestions) {
		return []string{}
	}

	q = sanitize(q)

	suggestionMu.Lock()
	defer suggestionMu.Unlock()

	records, ok := suggestionCache[q]
	if !ok {
		cached, expired, err := cacher.Get()
		if err != nil || expired || cached == nil {
			return []string{}
		}

		records = lo.Filter(lo.Values(cached), func(r *queryRecord, _ int) bool {
			return fuzzy.Match(q, r.Query)
		})

		slices.SortFunc(records, func(a, b *queryRecord) int {
			if a.Rank != b.Rank {
				return b.Rank - a.Rank
			}
			return b.LastUsed.Compare(a.LastUsed)
		})

		suggestionCache[q] = records
	}

	return lo.Map(records, func(r *queryRecord, _ int) string {
		return r.Query
	})
}

func invalidate() {
	suggestionMu.Lock()
	defer suggestionMu.Unlock()
	clear(suggestionCache)
}

func sanitize(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
