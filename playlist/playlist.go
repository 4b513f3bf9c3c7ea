// Package playlist holds the ordered episode list of the title being watched.
//
// The cache is filled progressively: a fast fetch seeds it with one episode, a background
// fetch merges in the rest, and resolved play URLs are written back as they arrive.
package playlist

import (
	"sync"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shortplay/shortplay/constant"
	"github.com/shortplay/shortplay/source"
)

// Cache is an index-addressed episode list. It performs no I/O and is safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	episodes []source.Episode
	complete bool
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// Replace discards the current contents and seeds the cache with episodes.
func (c *Cache) Replace(episodes []source.Episode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.episodes = append([]source.Episode(nil), episodes...)
	c.complete = false
}

// Merge folds a fresher episode list into the cache.
//
// Episodes are matched by Number. A known episode only gains fields it lacks; URLs already
// present are kept. Unknown episodes are appended in the order given. Nothing is removed or
// reordered, so indices handed out earlier stay valid.
func (c *Cache) Merge(episodes []source.Episode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byNumber := make(map[int]int, len(c.episodes))
	for i, e := range c.episodes {
		byNumber[e.Number] = i
	}

	for _, incoming := range episodes {
		i, known := byNumber[incoming.Number]
		if !known {
			byNumber[incoming.Number] = len(c.episodes)
			c.episodes = append(c.episodes, incoming)
			continue
		}

		existing := &c.episodes[i]
		existing.ResolvedURL = lo.Ternary(existing.ResolvedURL != "", existing.ResolvedURL, incoming.ResolvedURL)
		existing.ResolutionSource = lo.Ternary(existing.ResolutionSource != "", existing.ResolutionSource, incoming.ResolutionSource)
		existing.Title = lo.Ternary(existing.Title != "", existing.Title, incoming.Title)
	}
}

// MarkComplete records that a full episode list has been merged.
func (c *Cache) MarkComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.complete = true
}

// SetResolvedURL stores a freshly resolved play URL for the episode at index.
// An empty url or an out-of-range index is ignored. Returns true if the entry changed.
func (c *Cache) SetResolvedURL(index int, url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if url == "" || index < 0 || index >= len(c.episodes) {
		return false
	}
	if c.episodes[index].ResolvedURL == url {
		return false
	}

	c.episodes[index].ResolvedURL = url
	return true
}

// Get returns the episode at index.
func (c *Cache) Get(index int) mo.Option[source.Episode] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if index < 0 || index >= len(c.episodes) {
		return mo.None[source.Episode]()
	}
	return mo.Some(c.episodes[index])
}

// IndexOf returns the index of the episode with the given number.
func (c *Cache) IndexOf(number int) mo.Option[int] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, i, ok := lo.FindIndexOf(c.episodes, func(e source.Episode) bool {
		return e.Number == number
	})
	if !ok {
		return mo.None[int]()
	}
	return mo.Some(i)
}

// Len returns the number of cached episodes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.episodes)
}

// IsComplete reports whether the episode list needs no further background fetch.
func (c *Cache) IsComplete() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.complete || len(c.episodes) > constant.CompletenessThreshold
}

// Snapshot returns a copy of the cached episodes.
func (c *Cache) Snapshot() []source.Episode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]source.Episode(nil), c.episodes...)
}

// ResolvedCount returns how many episodes already carry a play URL.
func (c *Cache) ResolvedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.CountBy(c.episodes, func(e source.Episode) bool {
		return e.Resolved()
	})
}
