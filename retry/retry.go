// Package retry runs backend calls with per-attempt deadlines and linear backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	retrygo "github.com/avast/retry-go/v4"
	"github.com/shortplay/shortplay/key"
	"github.com/spf13/viper"
)

// Policy bounds how often and how long an operation is attempted.
type Policy struct {
	// MaxAttempts counts the first try. Must be at least 1.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number to get the wait before the next try.
	BaseDelay time.Duration
	// AttemptTimeout is the deadline of a single try.
	AttemptTimeout time.Duration
	// OnRetry, when set, is called with the number of the try that just failed.
	OnRetry func(attempt int, err error)

	timer retrygo.Timer
}

// Default returns the policy used when nothing is configured: 4 attempts, 1s base delay, 10s per attempt.
func Default() Policy {
	return Policy{
		MaxAttempts:    4,
		BaseDelay:      time.Second,
		AttemptTimeout: 10 * time.Second,
	}
}

// FromConfig builds a policy from the retry.* configuration keys.
func FromConfig() Policy {
	return Policy{
		MaxAttempts:    viper.GetInt(key.RetryMaxAttempts),
		BaseDelay:      time.Duration(viper.GetInt(key.RetryBaseDelayMs)) * time.Millisecond,
		AttemptTimeout: time.Duration(viper.GetInt(key.RetryAttemptTimeoutMs)) * time.Millisecond,
	}
}

// ErrExhausted matches every *ExhaustedError through errors.Is.
var ErrExhausted = errors.New("retries exhausted")

// ExhaustedError is returned when every attempt failed. It unwraps to the last failure.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns it after the first failure.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls op until it succeeds, fails permanently, the attempts run out or ctx ends.
//
// Every try gets its own context derived from ctx with the policy's AttemptTimeout, and
// that context is cancelled as soon as the try returns. A cancelled ctx stops the loop at
// once, including during a backoff wait, and its error is returned unwrapped.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var (
		zero      T
		attempts  int
		permanent bool
	)

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	value, err := retrygo.DoWithData(
		func() (T, error) {
			if err := ctx.Err(); err != nil {
				return zero, retrygo.Unrecoverable(err)
			}

			attempts++
			attemptCtx, cancel := p.attemptContext(ctx)
			defer cancel()

			v, err := op(attemptCtx)
			if err != nil && IsPermanent(err) {
				permanent = true
				return zero, retrygo.Unrecoverable(err)
			}
			return v, err
		},
		p.options(ctx, func() int { return attempts })...,
	)
	if err == nil {
		return value, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	if permanent {
		return zero, err
	}
	return zero, &ExhaustedError{Attempts: attempts, Err: err}
}

func (p Policy) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.AttemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.AttemptTimeout)
}

// options translates the policy for retry-go. attempts reports how many tries have run so
// far, which keeps the backoff at BaseDelay times the number of the failed try.
func (p Policy) options(ctx context.Context, attempts func() int) []retrygo.Option {
	opts := []retrygo.Option{
		retrygo.Context(ctx),
		retrygo.Attempts(uint(max(1, p.MaxAttempts))),
		retrygo.LastErrorOnly(true),
		retrygo.DelayType(func(_ uint, _ error, _ *retrygo.Config) time.Duration {
			return p.BaseDelay * time.Duration(attempts())
		}),
		retrygo.OnRetry(func(_ uint, err error) {
			if p.OnRetry != nil {
				p.OnRetry(attempts(), err)
			}
		}),
	}

	if p.timer != nil {
		opts = append(opts, retrygo.WithTimer(p.timer))
	}

	return opts
}
