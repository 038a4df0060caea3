// Package retry runs a unit of work with a bounded number of attempts and
// exponential backoff between them.
package retry

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

const (
	DefaultAttempts = 3
	DefaultBase     = time.Second
)

// PanicError carries a panic recovered from the wrapped function.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Controller retries a function up to Attempts times. After the n-th failed
// attempt it waits Base * 2^n before trying again, so with the default base
// the waits are 2s, 4s, 8s and so on.
type Controller struct {
	Attempts int
	Base     time.Duration

	// Sleep defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry, when set, is called before each backoff wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

func New(attempts int) *Controller {
	return &Controller{Attempts: attempts, Base: DefaultBase}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (c *Controller) Backoff(attempt int) time.Duration {
	base := c.Base
	if base <= 0 {
		base = DefaultBase
	}
	return base * time.Duration(1<<attempt)
}

// Do calls fn until it succeeds or the attempts are used up, and returns the
// last error along with the number of attempts made. Context cancellation
// during a backoff wait stops the loop with the context's error.
func (c *Controller) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	attempt := 0
	for {
		err := call(ctx, fn)
		if err == nil {
			return attempt + 1, nil
		}
		attempt++
		if attempt >= attempts {
			return attempt, err
		}

		wait := c.Backoff(attempt)
		if c.OnRetry != nil {
			c.OnRetry(attempt, err, wait)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return attempt, serr
		}
	}
}

func call(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
