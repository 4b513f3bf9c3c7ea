// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/shortplay/shortplay/color"
	"github.com/shortplay/shortplay/constant"
	"github.com/shortplay/shortplay/key"
	"github.com/shortplay/shortplay/style"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Shortplay + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.BackendURL, "http://localhost:5000", "Base URL of the short-drama backend")
	register(key.BackendTimeout, 60, "Overall HTTP client timeout in seconds.\nPer-attempt deadlines are set by retry.attempt_timeout_ms")
	register(key.BackendRatePerMinute, 30, "Maximum backend requests per minute.\n0 disables client-side pacing")
	register(key.SessionFastEpisodes, constant.FastEpisodes, "Episodes requested by the first, fast title fetch")
	register(key.SessionFullEpisodes, constant.FullEpisodes, "Episodes requested by the background full-list fetch.\nClamped to 1..100")
	register(key.SessionMaxRetry, constant.MaxRetry, "User-initiated retries allowed after a failure")
	register(key.SessionAdvanceSeconds, constant.AdvanceSeconds, "Length of the auto-advance countdown in seconds")
	register(key.SessionAutoAdvance, true, "Start the auto-advance countdown when an episode ends")
	register(key.RetryMaxAttempts, 4, "Attempts per backend call (first try included)")
	register(key.RetryBaseDelayMs, 1000, "Base backoff in milliseconds.\nAttempt n waits base * n before the next try")
	register(key.RetryAttemptTimeoutMs, 10000, "Deadline of a single backend attempt in milliseconds")
	register(key.Player, constant.PlayerMPV, "Media player to use.\nAvailable options are: mpv, none (load episodes without showing them)")
	register(key.PlayerAutoplay, true, "Start playback as soon as a source is loaded")
	register(key.HistorySaveOnPlay, true, "Remember the last played episode of every title")
	register(key.SearchLimit, 20, "Limit of search results to show")
	register(key.SearchShowQuerySuggestions, true, "Show query suggestions when searching")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
