// Package retry re-runs an endpoint attempt on transient failures with
// exponential backoff and jitter.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"amlchat/internal/contextutil"
)

// Policy bounds how often and how far apart an operation is retried.
// A Policy holds no per-call state; every Do gets a fresh attempt budget.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialInterval is the wait before the second attempt and the floor
	// of every wait. Zero means no floor.
	InitialInterval time.Duration

	// MaxInterval caps any single wait, jitter included. Zero means retries
	// do not wait.
	MaxInterval time.Duration

	// Multiplier grows the wait after every attempt. Values below 1 keep
	// every wait at InitialInterval.
	Multiplier float64

	// RandomizationFactor spreads each wait over [w*(1-f), w*(1+f)] before
	// it is clamped to [InitialInterval, MaxInterval].
	RandomizationFactor float64

	// Retryable decides whether a failure is transient. Nil retries nothing.
	Retryable func(error) bool

	newTimer func() backoff.Timer
}

// DefaultPolicy returns a Policy with the stock budget of 5 attempts waiting
// between 5s and 220s.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts:         5,
		InitialInterval:     5 * time.Second,
		MaxInterval:         220 * time.Second,
		Multiplier:          2,
		RandomizationFactor: 0.5,
		Retryable:           retryable,
	}
}

// Do calls op until it succeeds, fails with a non-retryable error, or the
// attempt budget runs out. When the budget is exhausted the last error is
// returned unchanged. If ctx is done while waiting, ctx.Err() is returned.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	logger := contextutil.LoggerFromContext(ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.WarnContext(ctx, "transient endpoint failure, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.maxAttempts()),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
	}

	var timer backoff.Timer
	if p.newTimer != nil {
		timer = p.newTimer()
	}

	return backoff.RetryNotifyWithTimer(operation, p.backOff(ctx), notify, timer)
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = max(p.InitialInterval, 0)
	b.MaxInterval = max(p.MaxInterval, 0)
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.RandomizationFactor
	b.MaxElapsedTime = 0

	bounded := &boundedBackOff{BackOff: b, floor: b.InitialInterval, ceiling: b.MaxInterval}
	retries := uint64(p.maxAttempts() - 1)
	return backoff.WithContext(backoff.WithMaxRetries(bounded, retries), ctx)
}

// boundedBackOff clamps every wait of the wrapped BackOff to [floor, ceiling].
// The ceiling wins when the two conflict.
type boundedBackOff struct {
	backoff.BackOff
	floor   time.Duration
	ceiling time.Duration
}

func (b *boundedBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	return min(max(next, b.floor), b.ceiling)
}
