package session

import "github.com/shortplay/shortplay/source"

// AdvanceState describes a pending auto-advance.
type AdvanceState struct {
	TargetIndex      int  `json:"target_index"`
	CountdownSeconds int  `json:"countdown_seconds"`
	Cancelled        bool `json:"cancelled"`
}

// Snapshot is a consistent copy of a controller's state.
type Snapshot struct {
	SessionID    string           `json:"session_id"`
	State        State            `json:"state"`
	TitleID      string           `json:"title_id,omitempty"`
	DisplayTitle string           `json:"display_title,omitempty"`
	Episodes     []source.Episode `json:"episodes"`
	CurrentIndex int              `json:"current_index"`
	IsLoading    bool             `json:"is_loading"`
	Buffering    bool             `json:"buffering"`
	RetryCount   int              `json:"retry_count"`
	MaxRetry     int              `json:"max_retry"`
	LastError    *Error           `json:"last_error,omitempty"`
	Advance      *AdvanceState    `json:"advance,omitempty"`
	Complete     bool             `json:"complete"`
}

// Current returns the episode being watched, if any.
func (s Snapshot) Current() (source.Episode, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Episodes) {
		return source.Episode{}, false
	}
	return s.Episodes[s.CurrentIndex], true
}

// RetriesLeft returns how many more times Retry may be called.
func (s Snapshot) RetriesLeft() int {
	return max(0, s.MaxRetry-s.RetryCount)
}

// CanRetry reports whether a retry affordance should be offered.
func (s Snapshot) CanRetry() bool {
	return s.LastError != nil && s.LastError.Retryable() && s.RetriesLeft() > 0 && !s.IsLoading
}

// HasNext reports whether an episode follows the current one.
func (s Snapshot) HasNext() bool {
	return s.CurrentIndex+1 < len(s.Episodes)
}

// HasPrevious reports whether an episode precedes the current one.
func (s Snapshot) HasPrevious() bool {
	return s.CurrentIndex > 0 && len(s.Episodes) > 0
}

// Info summarises the episode list.
type Info struct {
	// Total number of known episodes.
	Total int `json:"total"`
	// Loaded counts episodes with a play URL.
	Loaded int `json:"loaded"`
	// Current is the number of the episode being watched, zero if none.
	Current int `json:"current"`
}

// Info returns the episode summary.
func (s Snapshot) Info() Info {
	info := Info{Total: len(s.Episodes)}
	for _, e := range s.Episodes {
		if e.Resolved() {
			info.Loaded++
		}
	}
	if e, ok := s.Current(); ok {
		info.Current = e.Number
	}
	return info
}

// NotificationKind says why subscribers are being called.
type NotificationKind int

const (
	// StateChanged follows every transition and error.
	StateChanged NotificationKind = iota
	// EpisodesUpdated follows a background merge.
	EpisodesUpdated
	// EpisodeChanged follows a successful retarget of the player.
	EpisodeChanged
	// CountdownTick carries the remaining auto-advance seconds.
	CountdownTick
	// AllEpisodesComplete follows the end of the last episode.
	AllEpisodesComplete
	// PlayerClosed means the renderer went away.
	PlayerClosed
)

func (k NotificationKind) String() string {
	switch k {
	case StateChanged:
		return "state-changed"
	case EpisodesUpdated:
		return "episodes-updated"
	case EpisodeChanged:
		return "episode-changed"
	case CountdownTick:
		return "countdown-tick"
	case AllEpisodesComplete:
		return "all-episodes-complete"
	case PlayerClosed:
		return "player-closed"
	default:
		return "unknown"
	}
}

// Notification is delivered to subscribers after the state lock is released.
type Notification struct {
	Kind     NotificationKind
	Snapshot Snapshot
}
