package resilience

import (
	"context"
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
)

const (
	defaultRetries   = 3
	defaultBaseDelay = 2 * time.Second
)

// RetryConfig bounds a retried operation. Retries counts additional
// attempts after the first; the delay before attempt n is
// BaseDelay * 2^(n-1). Backoff is deterministic: this is a
// single-process scheduler, jitter buys nothing here.
type RetryConfig struct {
	Retries   int
	BaseDelay time.Duration
	Label     string
	Logger    *logging.Logger
}

func (c RetryConfig) normalize() RetryConfig {
	if c.Retries < 0 {
		c.Retries = defaultRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.Label == "" {
		c.Label = "operation"
	}
	if c.Logger == nil {
		c.Logger = logging.Default()
	}
	return c
}

// Retry runs op, retrying any failure up to cfg.Retries times with
// exponential backoff. The last error is returned once attempts are
// exhausted. op must tolerate being invoked more than once: this is
// at-least-once execution, not exactly-once.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func(context.Context) (T, error)) (T, error) {
	return retry(ctx, cfg, nil, op)
}

// RetryClassified retries only failures the classifier reports as
// transient; anything else propagates immediately after the first
// attempt. Used for persistence calls where constraint violations must
// never be replayed.
func RetryClassified[T any](ctx context.Context, cfg RetryConfig, transient func(error) bool, op func(context.Context) (T, error)) (T, error) {
	if transient == nil {
		transient = func(error) bool { return false }
	}
	return retry(ctx, cfg, transient, op)
}

// RetryNoResult is Retry for operations without a return value.
func RetryNoResult(ctx context.Context, cfg RetryConfig, op func(context.Context) error) error {
	_, err := retry(ctx, cfg, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func retry[T any](ctx context.Context, cfg RetryConfig, transient func(error) bool, op func(context.Context) (T, error)) (T, error) {
	cfg = cfg.normalize()

	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := op(ctx)
		if err == nil {
			return value, nil
		}
		if transient != nil && !transient(err) {
			return zero, err
		}
		lastErr = err

		if attempt < cfg.Retries {
			delay := cfg.BaseDelay << attempt
			cfg.Logger.WarnContext(ctx, "retrying operation",
				"label", cfg.Label,
				"attempt", attempt+1,
				"retries", cfg.Retries,
				"delay", delay,
				"error", err,
			)
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}
	}

	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
