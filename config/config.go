// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shortplay/shortplay/constant"
	"github.com/shortplay/shortplay/filesystem"
	"github.com/shortplay/shortplay/icon"
	"github.com/shortplay/shortplay/key"
	"github.com/shortplay/shortplay/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state: defaults, environment bindings and the optional config file.
func Setup() error {
	viper.SetConfigName(constant.Shortplay)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Shortplay)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return Validate()
}

// Validate checks the loaded values that cannot be fixed up silently.
func Validate() error {
	raw := viper.GetString(key.BackendURL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s %q: expected absolute http(s) URL", key.BackendURL, raw)
	}

	for _, k := range []string{key.RetryMaxAttempts, key.SessionFastEpisodes, key.SessionFullEpisodes, key.SessionAdvanceSeconds} {
		if viper.GetInt(k) < 1 {
			return fmt.Errorf("invalid %s: must be at least 1", k)
		}
	}

	switch p := viper.GetString(key.Player); p {
	case constant.PlayerMPV, constant.PlayerNone:
	default:
		return fmt.Errorf("invalid %s %q: expected %s or %s", key.Player, p, constant.PlayerMPV, constant.PlayerNone)
	}

	if icon.Current().IsAbsent() {
		return fmt.Errorf("invalid %s %q: expected one of %s", key.IconsVariant, viper.GetString(key.IconsVariant), strings.Join(icon.AvailableVariants(), ", "))
	}

	if viper.GetInt(key.SessionMaxRetry) < 0 {
		return fmt.Errorf("invalid %s: must not be negative", key.SessionMaxRetry)
	}

	return nil
}

// ClampEpisodes bounds an episode count to what the backend accepts.
func ClampEpisodes(n int) int {
	return max(1, min(n, constant.MaxEpisodesLimit))
}
