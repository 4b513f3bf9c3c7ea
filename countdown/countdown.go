// Package countdown implements the single-slot auto-advance countdown shown after an episode ends.
package countdown

import (
	"sync"
	"time"
)

// Timer runs at most one countdown at a time. Starting a new countdown cancels the old one.
type Timer struct {
	interval time.Duration

	mu     sync.Mutex
	stop   chan struct{}
	active bool
}

// New returns a timer that ticks once per second.
func New() *Timer {
	return NewWithInterval(time.Second)
}

// NewWithInterval returns a timer with a custom tick interval.
func NewWithInterval(interval time.Duration) *Timer {
	return &Timer{interval: interval}
}

// Start begins counting down from seconds.
//
// onTick receives seconds, seconds-1, ..., 0 with one interval between calls; the first call
// happens immediately. After the 0 tick onExpire runs exactly once and the slot is freed.
// Callbacks run on the timer's goroutine and must not block. A callback already past its
// cancellation check may still run once after Cancel returns.
func (t *Timer) Start(seconds int, onTick func(remaining int), onExpire func()) {
	t.mu.Lock()
	t.cancelLocked()

	stop := make(chan struct{})
	t.stop = stop
	t.active = true
	t.mu.Unlock()

	go t.run(stop, max(0, seconds), onTick, onExpire)
}

func (t *Timer) run(stop chan struct{}, remaining int, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if !t.current(stop) {
			return
		}
		if onTick != nil {
			onTick(remaining)
		}

		if remaining == 0 {
			if !t.finish(stop) {
				return
			}
			if onExpire != nil {
				onExpire()
			}
			return
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
			remaining--
		}
	}
}

// current reports whether stop still belongs to the running countdown.
func (t *Timer) current(stop chan struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop == stop && t.active
}

// finish frees the slot if stop is still current.
func (t *Timer) finish(stop chan struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != stop || !t.active {
		return false
	}
	t.active = false
	t.stop = nil
	return true
}

// Cancel stops the running countdown. It is idempotent and reports whether a countdown was stopped.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelLocked()
}

func (t *Timer) cancelLocked() bool {
	if !t.active {
		return false
	}
	close(t.stop)
	t.stop = nil
	t.active = false
	return true
}

// Active reports whether a countdown is running.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}
