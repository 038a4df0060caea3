package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSleep struct {
	waits []time.Duration
}

func (r *recordedSleep) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.waits = append(r.waits, d)
	return nil
}

func newController(attempts int) (*Controller, *recordedSleep) {
	sleeper := &recordedSleep{}
	c := New(attempts)
	c.Sleep = sleeper.Sleep
	return c, sleeper
}

func TestDoSucceedsFirstTry(t *testing.T) {
	c, sleeper := newController(3)
	attempts, err := c.Do(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, sleeper.waits)
}

func TestDoRecoversAfterFailures(t *testing.T) {
	c, sleeper := newController(4)
	calls := 0
	attempts, err := c.Do(context.Background(), func(context.Context) error {
		calls++
		if calls <= 2 {
			return errors.New("http 503")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.waits)
}

func TestDoExhaustsAttempts(t *testing.T) {
	c, sleeper := newController(3)
	calls := 0
	attempts, err := c.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("connection refused")
	})
	require.EqualError(t, err, "connection refused")
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.waits)
}

func TestDoTreatsZeroAttemptsAsOne(t *testing.T) {
	c, sleeper := newController(0)
	calls := 0
	_, err := c.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.waits)
}

func TestDoRecoversPanics(t *testing.T) {
	c, _ := newController(2)
	calls := 0
	attempts, err := c.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			panic("nil map")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	_, err = c.Do(context.Background(), func(context.Context) error { panic("always") })
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "always", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
}

func TestDoStopsOnCancellation(t *testing.T) {
	c, _ := newController(5)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	attempts, err := c.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("timeout")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestOnRetryHook(t *testing.T) {
	c, _ := newController(3)
	var seen []int
	c.OnRetry = func(attempt int, err error, wait time.Duration) {
		seen = append(seen, attempt)
		assert.Equal(t, c.Backoff(attempt), wait)
	}
	_, _ = c.Do(context.Background(), func(context.Context) error { return errors.New("x") })
	assert.Equal(t, []int{1, 2}, seen)
}

func TestBackoffUsesBase(t *testing.T) {
	c := &Controller{Base: 10 * time.Millisecond}
	assert.Equal(t, 20*time.Millisecond, c.Backoff(1))
	assert.Equal(t, 80*time.Millisecond, c.Backoff(3))
}
