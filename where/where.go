// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/shortplay/shortplay/constant"
	"github.com/shortplay/shortplay/filesystem"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "SHORTPLAY_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The SHORTPLAY_CONFIG_PATH environment variable takes precedence over the platform default.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Shortplay))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Shortplay))
}

// Logs resolves the directory holding rotated log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// History resolves the path of the resume-point store.
func History() string {
	return filepath.Join(Config(), "history.json")
}

// Queries resolves the path of the search query suggestion store.
func Queries() string {
	return filepath.Join(Cache(), "queries.json")
}

// Temp resolves a directory for transient artifacts such as player IPC sockets.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Shortplay))
}
