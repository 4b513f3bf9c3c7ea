package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"github.com/shortplay/shortplay/source"
)

// videoResponse is the body of GET /video/{id}.
type videoResponse struct {
	Success bool       `json:"success"`
	Data    *videoData `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
}

type videoData struct {
	VideoTitle  string        `json:"video_title"`
	M3U8URL     string        `json:"m3u8_url,omitempty"`
	PlayURL     string        `json:"play_url,omitempty"`
	Episodes    []wireEpisode `json:"episodes,omitempty"`
	Tags        string        `json:"tags,omitempty"`
	StatusInfo  string        `json:"status_info,omitempty"`
	ReleaseDate string        `json:"release_date,omitempty"`
}

type wireEpisode struct {
	Number  episodeNumber `json:"number"`
	Title   string        `json:"title,omitempty"`
	URL     string        `json:"url,omitempty"`
	PlayURL *string       `json:"play_url,omitempty"`
}

// episodeNumber accepts numbers and label strings such as "12" or "Ep 12".
// Zero means the label carried no digits.
type episodeNumber int

func (n *episodeNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = episodeNumber(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	parsed, err := strconv.Atoi(digits)
	if err != nil {
		*n = 0
		return nil
	}
	*n = episodeNumber(parsed)
	return nil
}

// resolveRequest is the body of POST /episode-play-url.
type resolveRequest struct {
	EpisodeURL string `json:"episode_url"`
}

type resolveResponse struct {
	Success bool   `json:"success"`
	PlayURL string `json:"play_url,omitempty"`
	Error   string `json:"error,omitempty"`
}

type searchResponse struct {
	SearchTerm string          `json:"search_term"`
	ItemCount  int             `json:"item_count"`
	Items      []source.Result `json:"items"`
	Error      string          `json:"error,omitempty"`
}

// Health is the body of GET /health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Error     string `json:"error,omitempty"`
	Config    struct {
		Debug            bool `json:"debug"`
		RateLimitEnabled bool `json:"rate_limit_enabled"`
		MaxEpisodes      int  `json:"max_episodes"`
	} `json:"config"`
}

// toTitle maps the wire payload onto the domain model.
// Episodes without a usable number take their 1-based position; duplicates keep the first.
func (d *videoData) toTitle(id string) *source.Title {
	seen := make(map[int]struct{}, len(d.Episodes))

	episodes := lo.FilterMap(d.Episodes, func(w wireEpisode, i int) (source.Episode, bool) {
		number := int(w.Number)
		if number <= 0 {
			number = i + 1
		}
		if _, dup := seen[number]; dup {
			return source.Episode{}, false
		}
		seen[number] = struct{}{}

		return source.Episode{
			Number:           number,
			Title:            strings.TrimSpace(w.Title),
			ResolvedURL:      strings.TrimSpace(lo.FromPtr(w.PlayURL)),
			ResolutionSource: strings.TrimSpace(w.URL),
		}, true
	})

	return &source.Title{
		ID:             id,
		DisplayTitle:   strings.TrimSpace(d.VideoTitle),
		Episodes:       episodes,
		PrimaryPlayURL: lo.CoalesceOrEmpty(strings.TrimSpace(d.M3U8URL), strings.TrimSpace(d.PlayURL)),
		Tags:           d.Tags,
		Status:         d.StatusInfo,
		ReleaseDate:    d.ReleaseDate,
	}
}
