package resilience_test

import (
	"context"
	goerrors "errors"
	"testing"
	"time"

	"github.com/kbukum/commander/errors"
	"github.com/kbukum/commander/resilience"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	cfg := resilience.RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
	}

	got, err := resilience.Retry(context.Background(), cfg, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.SpawnFailed("worker", goerrors.New("fork failed"))
		}
		return "up", nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got != "up" {
		t.Errorf("result = %q", got)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	cfg := resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}

	_, err := resilience.Retry(context.Background(), cfg, func() (int, error) {
		attempts++
		return 0, errors.SpawnFailed("worker", goerrors.New("fork failed"))
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d", attempts)
	}
	if !errors.HasCode(err, errors.ErrCodeSpawnFailed) {
		t.Errorf("expected last error to surface, got %v", err)
	}
}

func TestRetrySkipsNonRetryableCode(t *testing.T) {
	attempts := 0
	cfg := resilience.RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
	}

	_, err := resilience.Retry(context.Background(), cfg, func() (int, error) {
		attempts++
		return 0, errors.CredentialRejected()
	})
	if attempts != 1 {
		t.Errorf("non-retryable error must not be retried, attempts = %d", attempts)
	}
	if !errors.HasCode(err, errors.ErrCodeCredentialRejected) {
		t.Errorf("expected original error, got %v", err)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	cfg := resilience.RetryConfig{
		MaxAttempts:    10,
		InitialBackoff: 50 * time.Millisecond,
	}

	err := resilience.RetryFunc(ctx, cfg, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.SpawnFailed("worker", goerrors.New("fork failed"))
	})
	if !goerrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if attempts > 3 {
		t.Errorf("retrying continued after cancel, attempts = %d", attempts)
	}
}

func TestRetryOnRetryCallback(t *testing.T) {
	var observed []int
	cfg := resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			observed = append(observed, attempt)
		},
	}

	_ = resilience.RetryFunc(context.Background(), cfg, func() error {
		return errors.SpawnFailed("worker", goerrors.New("fork failed"))
	})
	if len(observed) != 2 {
		t.Errorf("expected 2 retry callbacks, got %v", observed)
	}
}
