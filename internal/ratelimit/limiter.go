// Package ratelimit bounds how many calls may start within a rolling window.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"amlchat/internal/contextutil"
)

// Window is the rolling interval a per-minute limit applies to.
const Window = time.Minute

// Limiter admits at most max calls in any trailing window.
//
// Callers reserve admission times in arrival order, so a waiting caller is
// never overtaken by a later one. The zero value and a nil *Limiter admit
// every call immediately.
type Limiter struct {
	max    int
	window time.Duration

	mu       sync.Mutex
	admitted []time.Time // non-decreasing, includes future reservations

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter admitting maxPerMinute calls per rolling minute.
// maxPerMinute <= 0 disables limiting.
func New(maxPerMinute int) *Limiter {
	return newLimiter(maxPerMinute, Window)
}

func newLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:    max,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Max returns the configured ceiling, or 0 when limiting is disabled.
func (l *Limiter) Max() int {
	if l == nil || l.max <= 0 {
		return 0
	}
	return l.max
}

// Wait blocks until one more call can start without exceeding the ceiling.
// If ctx is done first, the reservation is released and ctx.Err() is returned.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.Max() == 0 {
		return nil
	}

	at, delay := l.reserve()
	if delay <= 0 {
		return nil
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "rate limit reached, delaying call",
		slog.Int("max_per_window", l.max),
		slog.Duration("delay", delay),
	)

	if err := l.sleep(ctx, delay); err != nil {
		l.release(at)
		return err
	}
	return nil
}

// reserve records the earliest admission time that keeps every window at or
// under the ceiling, and returns it with the delay from now.
func (l *Limiter) reserve() (time.Time, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	drop := 0
	for drop < len(l.admitted) && !l.admitted[drop].After(cutoff) {
		drop++
	}
	l.admitted = l.admitted[drop:]

	at := now
	if n := len(l.admitted); n >= l.max {
		if earliest := l.admitted[n-l.max].Add(l.window); earliest.After(at) {
			at = earliest
		}
	}
	// keep admitted sorted after releases
	if n := len(l.admitted); n > 0 && l.admitted[n-1].After(at) {
		at = l.admitted[n-1]
	}
	l.admitted = append(l.admitted, at)
	return at, at.Sub(now)
}

// release drops a reservation that was never used.
func (l *Limiter) release(at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.admitted) - 1; i >= 0; i-- {
		if l.admitted[i].Equal(at) {
			l.admitted = append(l.admitted[:i], l.admitted[i+1:]...)
			return
		}
	}
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
