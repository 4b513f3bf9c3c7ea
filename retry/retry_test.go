package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// recordingTimer fires immediately and remembers the requested waits.
type recordingTimer struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingTimer) After(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()

	c := make(chan time.Time, 1)
	c <- time.Now()
	return c
}

func (r *recordingTimer) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

var errFlaky = errors.New("connection reset")

func TestDo(t *testing.T) {
	Convey("Given the default policy with a recording timer", t, func() {
		timer := &recordingTimer{}
		policy := Default()
		policy.timer = timer
		ctx := context.Background()

		Convey("A first-try success makes one call and never waits", func() {
			calls := 0
			v, err := Do(ctx, policy, func(context.Context) (string, error) {
				calls++
				return "ok", nil
			})

			So(err, ShouldBeNil)
			So(v, ShouldEqual, "ok")
			So(calls, ShouldEqual, 1)
			So(timer.recorded(), ShouldBeEmpty)
		})

		Convey("Two failures then success waits 1s then 2s", func() {
			calls := 0
			v, err := Do(ctx, policy, func(context.Context) (int, error) {
				calls++
				if calls < 3 {
					return 0, errFlaky
				}
				return 42, nil
			})

			So(err, ShouldBeNil)
			So(v, ShouldEqual, 42)
			So(calls, ShouldEqual, 3)
			So(timer.recorded(), ShouldResemble, []time.Duration{time.Second, 2 * time.Second})
		})

		Convey("Four failures exhaust the policy and keep the last cause", func() {
			calls := 0
			var reported []int
			policy.OnRetry = func(attempt int, _ error) { reported = append(reported, attempt) }

			_, err := Do(ctx, policy, func(context.Context) (int, error) {
				calls++
				return 0, errFlaky
			})

			So(calls, ShouldEqual, 4)
			So(errors.Is(err, ErrExhausted), ShouldBeTrue)
			So(errors.Is(err, errFlaky), ShouldBeTrue)

			var exhausted *ExhaustedError
			So(errors.As(err, &exhausted), ShouldBeTrue)
			So(exhausted.Attempts, ShouldEqual, 4)
			So(reported[:3], ShouldResemble, []int{1, 2, 3})
		})

		Convey("A permanent failure is not retried", func() {
			calls := 0
			_, err := Do(ctx, policy, func(context.Context) (int, error) {
				calls++
				return 0, Permanent(errFlaky)
			})

			So(calls, ShouldEqual, 1)
			So(errors.Is(err, errFlaky), ShouldBeTrue)
			So(errors.Is(err, ErrExhausted), ShouldBeFalse)
			So(IsPermanent(err), ShouldBeTrue)
		})

		Convey("An already cancelled context makes no call", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			calls := 0
			_, err := Do(cancelled, policy, func(context.Context) (int, error) {
				calls++
				return 0, nil
			})

			So(calls, ShouldEqual, 0)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestDoDeadlines(t *testing.T) {
	Convey("Given a policy with short real delays", t, func() {
		policy := Policy{MaxAttempts: 4, BaseDelay: 50 * time.Millisecond, AttemptTimeout: 20 * time.Millisecond}

		Convey("Each attempt's context expires after AttemptTimeout", func() {
			calls := 0
			_, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
				calls++
				if calls == 1 {
					<-ctx.Done()
					return 0, ctx.Err()
				}
				return 7, nil
			})

			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 2)
		})

		Convey("The attempt context is cancelled once the attempt returns", func() {
			var seen context.Context
			_, _ = Do(context.Background(), policy, func(ctx context.Context) (int, error) {
				seen = ctx
				return 1, nil
			})

			So(seen.Err(), ShouldNotBeNil)
		})

		Convey("Cancelling the parent during backoff stops the loop", func() {
			policy.BaseDelay = time.Hour
			ctx, cancel := context.WithCancel(context.Background())

			calls := 0
			done := make(chan error, 1)
			go func() {
				_, err := Do(ctx, policy, func(context.Context) (int, error) {
					calls++
					return 0, errFlaky
				})
				done <- err
			}()

			time.Sleep(30 * time.Millisecond)
			cancel()

			var err error
			select {
			case err = <-done:
			case <-time.After(2 * time.Second):
				err = errors.New("Do did not return after cancellation")
			}

			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(calls, ShouldEqual, 1)
		})
	})
}
