// Package log provides structured logging with size-rotated files under the application log directory.
package log

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shortplay/shortplay/key"
	"github.com/shortplay/shortplay/where"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// enabled indicates whether log emissions reach the output at all.
var enabled bool

// Setup initializes the logging subsystem from configuration.
// When logs.write is false every emission is discarded.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	logrus.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02"))),
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	})

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	return nil
}

// Enable forces logging on with the given output level, bypassing configuration. Used by tests.
func Enable(level logrus.Level) {
	enabled = true
	logrus.SetLevel(level)
}

// Entry is a logger carrying fixed fields, e.g. the playback session id.
type Entry struct {
	entry *logrus.Entry
}

// WithField starts a field-scoped logger.
func WithField(k string, v any) *Entry {
	return &Entry{entry: logrus.WithField(k, v)}
}

// WithField returns a copy of e with one more field.
func (e *Entry) WithField(k string, v any) *Entry {
	return &Entry{entry: e.entry.WithField(k, v)}
}

func (e *Entry) Debugf(format string, args ...any) {
	if enabled {
		e.entry.Debugf(format, args...)
	}
}

func (e *Entry) Infof(format string, args ...any) {
	if enabled {
		e.entry.Infof(format, args...)
	}
}

func (e *Entry) Warnf(format string, args ...any) {
	if enabled {
		e.entry.Warnf(format, args...)
	}
}

func (e *Entry) Errorf(format string, args ...any) {
	if enabled {
		e.entry.Errorf(format, args...)
	}
}

// Severity-specific emissions on the standard logger.

func Error(args ...any) {
	if enabled {
		logrus.Error(args...)
	}
}
func Errorf(format string, args ...any) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}
func Warn(args ...any) {
	if enabled {
		logrus.Warn(args...)
	}
}
func Warnf(format string, args ...any) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}
func Info(args ...any) {
	if enabled {
		logrus.Info(args...)
	}
}
func Infof(format string, args ...any) {
	if enabled {
		logrus.Infof(format, args...)
	}
}
func Debugf(format string, args ...any) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
