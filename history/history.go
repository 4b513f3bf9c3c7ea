// Package history keeps the last watched episode of every title so playback can resume.
package history

import (
	"cmp"
	"slices"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shortplay/shortplay/filesystem"
	"github.com/shortplay/shortplay/where"
)

var cacher = gache.New[map[string]*Record](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every stored record keyed by title id.
func Get() (map[string]*Record, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Record), nil
	}
	return cached, nil
}

// Recent returns the records, most recently watched first.
func Recent() ([]*Record, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	records := lo.Values(saved)
	slices.SortFunc(records, func(a, b *Record) int {
		return cmp.Or(b.UpdatedAt.Compare(a.UpdatedAt), cmp.Compare(a.TitleID, b.TitleID))
	})
	return records, nil
}

// Lookup returns the record of a title.
func Lookup(titleID string) (mo.Option[*Record], error) {
	saved, err := Get()
	if err != nil {
		return mo.None[*Record](), err
	}

	record, ok := saved[titleID]
	if !ok {
		return mo.None[*Record](), nil
	}
	return mo.Some(record), nil
}

// Save stores record as the resume point of its title, replacing any earlier one.
// A zero UpdatedAt is set to the current time.
func Save(record Record) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}
	// a title learnt to be longer keeps its larger total
	if existing, ok := saved[record.TitleID]; ok {
		record.EpisodesTotal = max(record.EpisodesTotal, existing.EpisodesTotal)
	}

	saved[record.TitleID] = &record
	return cacher.Set(saved)
}

// Remove deletes the record of a title.
func Remove(titleID string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, titleID)
	return cacher.Set(saved)
}

// Clear deletes every record.
func Clear() error {
	return cacher.Set(make(map[string]*Record))
}
