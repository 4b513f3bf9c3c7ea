package session

import (
	"github.com/shortplay/shortplay/config"
	"github.com/shortplay/shortplay/constant"
	"github.com/shortplay/shortplay/countdown"
	"github.com/shortplay/shortplay/key"
	"github.com/shortplay/shortplay/retry"
	"github.com/spf13/viper"
)

// Options tune a Controller.
type Options struct {
	// FastEpisodes is max_episodes of the first fetch.
	FastEpisodes int
	// FullEpisodes is max_episodes of the background fetch.
	FullEpisodes int
	// MaxRetry is the number of user retries per failure streak.
	MaxRetry int
	// AdvanceSeconds is the countdown length after an episode ends.
	AdvanceSeconds int
	// AutoAdvance enables the countdown. When false an ended episode just stays ended.
	AutoAdvance bool
	// Autoplay calls Play on the sink after every new source.
	Autoplay bool
	// Policy wraps every backend call.
	Policy retry.Policy
	// Timer drives the countdown. Nil means a one-second timer.
	Timer *countdown.Timer
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		FastEpisodes:   constant.FastEpisodes,
		FullEpisodes:   constant.FullEpisodes,
		MaxRetry:       constant.MaxRetry,
		AdvanceSeconds: constant.AdvanceSeconds,
		AutoAdvance:    true,
		Autoplay:       true,
		Policy:         retry.Default(),
	}
}

// OptionsFromConfig reads the session.*, retry.* and player.autoplay keys.
func OptionsFromConfig() Options {
	return Options{
		FastEpisodes:   config.ClampEpisodes(viper.GetInt(key.SessionFastEpisodes)),
		FullEpisodes:   config.ClampEpisodes(viper.GetInt(key.SessionFullEpisodes)),
		MaxRetry:       viper.GetInt(key.SessionMaxRetry),
		AdvanceSeconds: viper.GetInt(key.SessionAdvanceSeconds),
		AutoAdvance:    viper.GetBool(key.SessionAutoAdvance),
		Autoplay:       viper.GetBool(key.PlayerAutoplay),
		Policy:         retry.FromConfig(),
	}
}
