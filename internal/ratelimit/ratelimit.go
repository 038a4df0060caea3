// Package ratelimit throttles requests per source with fixed 60-second
// windows. A source that has used its quota waits for the window to end and
// then starts a new one; nothing refills in between.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const DefaultWindow = time.Minute

type window struct {
	count   int
	resetAt time.Time
}

// Limiter tracks one window per source name. The zero value is not usable;
// call New.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	size    time.Duration
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSleep replaces the context-aware timer used while a window is full.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) { l.sleep = sleep }
}

func WithWindow(size time.Duration) Option {
	return func(l *Limiter) { l.size = size }
}

func New(opts ...Option) *Limiter {
	l := &Limiter{
		windows: map[string]*window{},
		size:    DefaultWindow,
		now:     time.Now,
		sleep:   Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Wait admits one request for source, blocking while the current window
// already holds limit requests. A limit of zero or less means unlimited.
// The only error is the context's.
func (l *Limiter) Wait(ctx context.Context, source string, limit int) error {
	if limit <= 0 {
		return nil
	}
	for {
		wait, ok := l.admit(source, limit)
		if ok {
			return nil
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (l *Limiter) admit(source string, limit int) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[source]
	if w == nil || !now.Before(w.resetAt) {
		l.windows[source] = &window{count: 1, resetAt: now.Add(l.size)}
		return 0, true
	}
	if w.count < limit {
		w.count++
		return 0, true
	}
	return w.resetAt.Sub(now), false
}

// Remaining reports how many requests source may still issue in its current
// window and when that window resets.
func (l *Limiter) Remaining(source string, limit int) (int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[source]
	if w == nil || !l.now().Before(w.resetAt) {
		return limit, time.Time{}
	}
	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, w.resetAt
}

// Sleep waits for d or until ctx is done.
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
