// Package source defines the domain models of the short-drama catalogue.
package source

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shortplay/shortplay/constant"
)

// Title is a multi-episode short drama, addressed by an opaque identifier.
type Title struct {
	// Opaque backend identifier.
	ID string `json:"id"`
	// Human readable name.
	DisplayTitle string `json:"display_title"`
	// Episodes in display order.
	Episodes []Episode `json:"episodes"`
	// Direct media URL for the first episode when the backend has one.
	PrimaryPlayURL string `json:"primary_play_url,omitempty"`

	Tags        string `json:"tags,omitempty"`
	Status      string `json:"status,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// String returns the display title, falling back to the identifier.
func (t *Title) String() string {
	if t.DisplayTitle != "" {
		return t.DisplayTitle
	}
	return t.ID
}

// HasDirectURL reports whether the title can start playing without resolving an episode.
func (t *Title) HasDirectURL() bool {
	return t.PrimaryPlayURL != ""
}

// Result is a single search hit.
type Result struct {
	ID       string `json:"video_id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
	// Free-form episode summary such as "30 episodes" or "updated to 12".
	Episodes string `json:"episodes,omitempty"`
	Genres   string `json:"genres,omitempty"`
}

func (r Result) String() string {
	return r.Title
}

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ErrInvalidID is returned by ValidateID.
var ErrInvalidID = errors.New("invalid title id")

// ValidateID checks an identifier against the character set and length the backend accepts.
func ValidateID(id string) error {
	if id == "" || len(id) > constant.TitleIDMaxLength || !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
