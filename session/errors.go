package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// State is the lifecycle position of a Controller.
type State int

const (
	Idle State = iota
	Bootstrapping
	Ready
	Switching
	AwaitingAdvance
	Failed
	Disposed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Bootstrapping:
		return "bootstrapping"
	case Ready:
		return "ready"
	case Switching:
		return "switching"
	case AwaitingAdvance:
		return "awaiting-advance"
	case Failed:
		return "failed"
	case Disposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText lets snapshots serialise states by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for candidate := Idle; candidate <= Disposed; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// ErrorKind classifies what went wrong, and with it which recovery is offered.
type ErrorKind int

const (
	// LoadFailed means the title could not be fetched. Session-terminal until retried.
	LoadFailed ErrorKind = iota
	// EpisodeUnresolvable means the backend could not produce a play URL for an episode.
	EpisodeUnresolvable
	// EpisodeUnplayable means the episode has neither a play URL nor a page to resolve. Never retried.
	EpisodeUnplayable
	// RetryExhausted means the last allowed retry failed too. Only a full reload is left.
	RetryExhausted
	// PlaybackError means the player rejected the media.
	PlaybackError
)

func (k ErrorKind) String() string {
	switch k {
	case LoadFailed:
		return "load-failed"
	case EpisodeUnresolvable:
		return "episode-unresolvable"
	case EpisodeUnplayable:
		return "episode-unplayable"
	case RetryExhausted:
		return "retry-exhausted"
	case PlaybackError:
		return "playback-error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrorKind) UnmarshalText(text []byte) error {
	for candidate := LoadFailed; candidate <= PlaybackError; candidate++ {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// Error is a failure surfaced to the user.
type Error struct {
	Kind ErrorKind `json:"kind"`
	// Op is the operation that failed: "bootstrap", "switch" or "playback".
	Op string `json:"op"`
	// Episode is the number of the affected episode, zero for title-level failures.
	Episode int `json:"episode,omitempty"`
	// Err is the underlying cause.
	Err error `json:"-"`
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case LoadFailed:
		msg = "could not load title"
	case EpisodeUnresolvable:
		msg = fmt.Sprintf("could not resolve episode %d", e.Episode)
	case EpisodeUnplayable:
		msg = fmt.Sprintf("episode %d has no playable source", e.Episode)
	case RetryExhausted:
		msg = "giving up after repeated failures"
	case PlaybackError:
		msg = "playback failed"
	default:
		msg = e.Kind.String()
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON adds the rendered message so headless consumers need not rebuild it.
func (e *Error) MarshalJSON() ([]byte, error) {
	type plain Error
	return json.Marshal(struct {
		*plain
		Message string `json:"message"`
	}{(*plain)(e), e.Error()})
}

// Terminal reports whether the error ends the session until a reload.
func (e *Error) Terminal() bool {
	return e.Kind == LoadFailed || e.Kind == RetryExhausted
}

// Retryable reports whether Retry can act on the error.
func (e *Error) Retryable() bool {
	return e.Kind != EpisodeUnplayable && e.Kind != RetryExhausted
}

var (
	// ErrBusy is returned when a load is already in flight.
	ErrBusy = errors.New("session is busy loading")
	// ErrDisposed is returned by every operation after Dispose.
	ErrDisposed = errors.New("session disposed")
	// ErrNotReady is returned by episode operations before a title is loaded or after a terminal error.
	ErrNotReady = errors.New("no title loaded")
	// ErrSuperseded is returned by a switch that lost to a newer one.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrIndexOutOfRange is returned for episode indices outside the cached list.
	ErrIndexOutOfRange = errors.New("episode index out of range")
	// ErrNotAwaiting is returned by CancelAdvance and AdvanceNow outside the countdown window.
	ErrNotAwaiting = errors.New("no auto-advance pending")
	// ErrNothingToRetry is returned by Retry when no retryable failure is pending.
	ErrNothingToRetry = errors.New("nothing to retry")
)
