// Package filesystem provides a virtualized abstraction layer for all filesystem operations.
//
// It uses afero so that tests can swap the OS filesystem for an in-memory one.
package filesystem

import (
	"sync"

	"github.com/spf13/afero"
)

var (
	mu      sync.RWMutex
	backend = afero.Afero{Fs: afero.NewOsFs()}
)

// API returns the active afero.Afero instance for filesystem interaction.
// Safe to call from session goroutines while a test swaps the backend.
func API() afero.Afero {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Set replaces the backend with fs.
func Set(fs afero.Fs) {
	mu.Lock()
	defer mu.Unlock()
	backend = afero.Afero{Fs: fs}
}

// SetOsFs restores the filesystem backend to the native operating system implementation.
func SetOsFs() {
	Set(afero.NewOsFs())
}

// SetMemMapFs installs a volatile in-memory backend for unit tests.
func SetMemMapFs() {
	Set(afero.NewMemMapFs())
}
