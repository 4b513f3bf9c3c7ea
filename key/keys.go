// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Backend Connectivity - these keys locate and pace the short-drama backend.
const (
	BackendURL           = "backend.url"
	BackendTimeout       = "backend.timeout"
	BackendRatePerMinute = "backend.rate_per_minute"
)

// Playback Session - these keys tune progressive loading and auto-advance.
const (
	SessionFastEpisodes   = "session.fast_episodes"
	SessionFullEpisodes   = "session.full_episodes"
	SessionMaxRetry       = "session.max_retry"
	SessionAdvanceSeconds = "session.advance_seconds"
	SessionAutoAdvance    = "session.auto_advance"
)

// Network Retry - these keys configure the bounded retry applied to every backend call.
const (
	RetryMaxAttempts      = "retry.max_attempts"
	RetryBaseDelayMs      = "retry.base_delay_ms"
	RetryAttemptTimeoutMs = "retry.attempt_timeout_ms"
)

// Media Playback - these keys select and configure the external video player.
const (
	Player         = "player.default"
	PlayerAutoplay = "player.autoplay"
)

// History Tracking - these keys configure the persistence of playback position.
const (
	HistorySaveOnPlay = "history.save_on_play"
)

// Search Interaction - these keys define search behaviour.
const (
	SearchLimit                = "search.limit"
	SearchShowQuerySuggestions = "search.show_query_suggestions"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern the non-TUI application behavior.
const (
	CliColored = "cli.colored"
)
