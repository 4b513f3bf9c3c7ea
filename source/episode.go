package source

import "fmt"

// Episode is one installment of a Title. Empty strings mean "absent".
type Episode struct {
	// Episode number, positive, used for display and for matching during merges.
	Number int `json:"number"`
	// Optional episode title.
	Title string `json:"title,omitempty"`
	// Directly playable media URL. Never cleared once set.
	ResolvedURL string `json:"resolved_url,omitempty"`
	// Episode page URL that the backend can turn into a ResolvedURL.
	ResolutionSource string `json:"resolution_source,omitempty"`
}

// String returns the episode title or a numbered fallback.
func (e Episode) String() string {
	if e.Title != "" {
		return e.Title
	}
	return fmt.Sprintf("Episode %d", e.Number)
}

// Resolved reports whether the episode can be handed to the player as is.
func (e Episode) Resolved() bool {
	return e.ResolvedURL != ""
}

// Playable reports whether the episode has any route to a media URL.
func (e Episode) Playable() bool {
	return e.ResolvedURL != "" || e.ResolutionSource != ""
}
