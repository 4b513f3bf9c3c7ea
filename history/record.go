package history

import (
	"fmt"
	"time"
)

// Record is the resume point of one title.
type Record struct {
	TitleID       string    `json:"title_id"`
	DisplayTitle  string    `json:"display_title"`
	EpisodeNumber int       `json:"episode_number"`
	EpisodeIndex  int       `json:"episode_index"`
	EpisodesTotal int       `json:"episodes_total"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (r *Record) String() string {
	name := r.DisplayTitle
	if name == "" {
		name = r.TitleID
	}
	return fmt.Sprintf("%s : %d / %d", name, r.EpisodeNumber, r.EpisodesTotal)
}

// Finished reports whether the resume point is the last known episode.
func (r *Record) Finished() bool {
	return r.EpisodesTotal > 0 && r.EpisodeIndex >= r.EpisodesTotal-1
}
