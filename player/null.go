package player

import (
	"errors"
	"sync"
)

// ErrDisposed is returned by sinks used after Dispose.
var ErrDisposed = errors.New("player disposed")

// Null is a headless sink. It renders nothing and reports Ready for every source, which is
// enough to drive a session without a window.
type Null struct {
	hub hub

	mu       sync.Mutex
	source   string
	playing  bool
	disposed bool
}

// NewNull returns a headless sink.
func NewNull() *Null {
	return &Null{}
}

func (n *Null) SetSource(url, _ string) error {
	n.mu.Lock()
	if n.disposed {
		n.mu.Unlock()
		return ErrDisposed
	}
	n.source = url
	n.mu.Unlock()

	n.hub.emit(Event{Kind: Ready})
	return nil
}

func (n *Null) Play() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed {
		return ErrDisposed
	}
	n.playing = true
	return nil
}

func (n *Null) Pause() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.disposed {
		return ErrDisposed
	}
	n.playing = false
	return nil
}

func (n *Null) Dispose() error {
	n.mu.Lock()
	n.disposed = true
	n.mu.Unlock()

	n.hub.clear()
	return nil
}

func (n *Null) Subscribe(fn func(Event)) func() {
	return n.hub.subscribe(fn)
}

// Source returns the last source handed to SetSource.
func (n *Null) Source() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.source
}

// Playing reports whether Play was called more recently than Pause.
func (n *Null) Playing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.playing
}

// End simulates the source playing to its end.
func (n *Null) End() {
	n.hub.emit(Event{Kind: Ended})
}
