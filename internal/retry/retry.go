// Package retry runs an operation under a bounded, fixed-delay retry policy.
package retry

import (
	"context"
	"time"
)

// Defaults used by the login flow.
const (
	DefaultMaxRetries = 2
	DefaultDelay      = 3 * time.Second
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Delay is the fixed wait between attempts.
	Delay time.Duration

	// Sleep waits between attempts. Nil means a real timer.
	Sleep SleepFunc
}

// Default returns the login retry policy: two retries, three seconds apart.
func Default() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, Delay: DefaultDelay}
}

// WithSleep returns a copy of the policy using the given sleep function.
func (p Policy) WithSleep(sleep SleepFunc) Policy {
	p.Sleep = sleep
	return p
}

// MaxAttempts is the total number of calls Do may make.
func (p Policy) MaxAttempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// attempts are used up. onRetry, if set, runs before each wait with the
// number of the retry about to happen (1-based) and the error that caused it.
// Do returns how many times fn was called and fn's last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, retryable func(error) bool, onRetry func(retry int, err error)) (int, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	attempts := 0
	for {
		attempts++
		err := fn(ctx)
		if err == nil {
			return attempts, nil
		}
		if attempts >= p.MaxAttempts() || retryable == nil || !retryable(err) {
			return attempts, err
		}
		if ctx.Err() != nil {
			return attempts, err
		}

		if onRetry != nil {
			onRetry(attempts, err)
		}
		if serr := sleep(ctx, p.Delay); serr != nil {
			return attempts, serr
		}
	}
}

// Sleep waits for d using a real timer, returning early with ctx.Err() when
// the context is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
