package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ErrExhausted is wrapped by the error returned once the retry ceiling is hit.
var ErrExhausted = errors.New("retries exhausted")

// Policy retries an operation a fixed number of times with a fixed delay.
// Failures are not classified; every error is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	Delay      time.Duration
	// Pace sleeps Delay before every attempt, the first one included.
	Pace bool
	Log  *slog.Logger
	// Sleep is swapped in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs fn until it succeeds or the ceiling is exceeded.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	log := p.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	attempts := p.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 || p.Pace {
			if err := sleep(ctx, p.Delay); err != nil {
				return zero, fmt.Errorf("%s: %w", op, err)
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		lastErr = err
		log.Warn("operation failed",
			slog.String("op", op),
			slog.Any("err", err),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w: %w", op, attempts, ErrExhausted, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
