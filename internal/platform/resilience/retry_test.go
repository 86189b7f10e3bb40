package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig(retries int) RetryConfig {
	return RetryConfig{
		Retries:   retries,
		BaseDelay: time.Millisecond,
		Label:     "test",
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	value, err := Retry(context.Background(), fastRetryConfig(3), func(context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Retry error: %v", err)
	}
	if value != "ok" {
		t.Fatalf("unexpected value %q", value)
	}
	if calls != 3 {
		t.Fatalf("op called %d times, want 3", calls)
	}
}

func TestRetry_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("still broken")
	calls := 0
	_, err := Retry(context.Background(), fastRetryConfig(2), func(context.Context) (int, error) {
		calls++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("op called %d times, want 3 (1 + 2 retries)", calls)
	}
}

func TestRetryClassified_NonTransientFailsImmediately(t *testing.T) {
	t.Parallel()

	permanent := errors.New("constraint violation")
	calls := 0
	_, err := RetryClassified(context.Background(), fastRetryConfig(3), func(err error) bool {
		return false
	}, func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("op called %d times, want exactly 1", calls)
	}
}

func TestRetryClassified_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	transient := errors.New("connection reset")
	calls := 0
	value, err := RetryClassified(context.Background(), fastRetryConfig(3), func(err error) bool {
		return errors.Is(err, transient)
	}, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", transient
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("RetryClassified error: %v", err)
	}
	if value != "recovered" || calls != 2 {
		t.Fatalf("unexpected result value=%q calls=%d", value, calls)
	}
}

func TestRetry_StopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry(ctx, RetryConfig{Retries: 5, BaseDelay: time.Hour, Label: "test"}, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("op called %d times, want 1", calls)
	}
}
