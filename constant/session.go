package constant

// Playback session defaults.
const (
	// FastEpisodes is the episode count requested for the first, fast title fetch.
	FastEpisodes = 1

	// FullEpisodes is the episode count requested by the background full-list fetch.
	FullEpisodes = 50

	// MaxEpisodesLimit is the upper bound the backend accepts for max_episodes.
	MaxEpisodesLimit = 100

	// CompletenessThreshold is the cache size above which the episode list counts as complete.
	CompletenessThreshold = 5

	// MaxRetry is the number of user-initiated retries allowed per failure streak.
	MaxRetry = 3

	// AdvanceSeconds is the length of the auto-advance countdown.
	AdvanceSeconds = 5

	// TitleIDMaxLength bounds opaque title identifiers.
	TitleIDMaxLength = 50
)
