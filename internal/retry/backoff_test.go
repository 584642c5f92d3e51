package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_DefaultConfig(t *testing.T) {
	config := DefaultBackoffConfig()

	if config.InitialDelay != 1*time.Second {
		t.Errorf("Expected initial delay of 1s, got %v", config.InitialDelay)
	}

	if config.MaxDelay != 30*time.Second {
		t.Errorf("Expected max delay of 30s, got %v", config.MaxDelay)
	}

	if config.Multiplier != 2.0 {
		t.Errorf("Expected multiplier of 2.0, got %v", config.Multiplier)
	}

	if config.MaxAttempts != 3 {
		t.Errorf("Expected max attempts of 3, got %d", config.MaxAttempts)
	}

	if !config.Jitter {
		t.Error("Expected jitter to be enabled by default")
	}
}

func TestBackoff_SuccessFirstAttempt(t *testing.T) {
	backoff := NewBackoff(BackoffConfig{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  3,
		Jitter:       false,
	})

	attempts := 0
	operation := func() error {
		attempts++
		return nil
	}

	err := backoff.Retry(context.Background(), operation, nil)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestBackoff_SuccessAfterRetries(t *testing.T) {
	backoff := NewBackoff(BackoffConfig{
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  5,
		Jitter:       false,
	})

	attempts := 0
	operation := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary failure")
		}
		return nil
	}

	err := backoff.Retry(context.Background(), operation, nil)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestBackoff_ExhaustsAttempts(t *testing.T) {
	backoff := NewBackoff(BackoffConfig{
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  3,
		Jitter:       false,
	})

	attempts := 0
	lastErr := errors.New("persistent failure")
	operation := func() error {
		attempts++
		return lastErr
	}

	err := backoff.Retry(context.Background(), operation, nil)

	if !errors.Is(err, lastErr) {
		t.Errorf("Expected the last operation error, got %v", err)
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestBackoff_NonRetryableStopsImmediately(t *testing.T) {
	backoff := NewBackoff(BackoffConfig{
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  5,
		Jitter:       false,
	})

	fatal := errors.New("permission denied")
	attempts := 0
	operation := func() error {
		attempts++
		return fatal
	}
	isRetryable := func(err error) bool {
		return !errors.Is(err, fatal)
	}

	err := backoff.Retry(context.Background(), operation, isRetryable)

	if !errors.Is(err, fatal) {
		t.Errorf("Expected the non-retryable error, got %v", err)
	}

	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestBackoff_ContextCancellation(t *testing.T) {
	backoff := NewBackoff(BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  5,
		Jitter:       false,
	})

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	operation := func() error {
		attempts++
		cancel() // Cancel while waiting before the next attempt
		return errors.New("failure")
	}

	err := backoff.Retry(ctx, operation, nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestBackoff_NextDelay(t *testing.T) {
	backoff := NewBackoff(BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  5,
		Jitter:       false,
	})

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second}, // Capped at MaxDelay
		{6, 1 * time.Second},
	}

	for _, tt := range tests {
		if got := backoff.NextDelay(tt.attempt); got != tt.expected {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestBackoff_NextDelayWithJitter(t *testing.T) {
	backoff := NewBackoff(BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  5,
		Jitter:       true,
	})

	// With ±25% jitter the delay for attempt 1 stays within [75ms, 125ms].
	for i := 0; i < 50; i++ {
		delay := backoff.NextDelay(1)
		if delay < 75*time.Millisecond || delay > 125*time.Millisecond {
			t.Errorf("Jittered delay %v outside expected range", delay)
		}
	}
}

func TestBackoff_MaxAttempts(t *testing.T) {
	backoff := NewBackoff(BackoffConfig{MaxAttempts: 4})
	if got := backoff.MaxAttempts(); got != 4 {
		t.Errorf("MaxAttempts() = %d, want 4", got)
	}
}

func TestSecureFloat64(t *testing.T) {
	for i := 0; i < 100; i++ {
		val := secureFloat64()
		if val < 0.0 || val >= 1.0 {
			t.Errorf("secureFloat64() = %v, want value in [0, 1)", val)
		}
	}
}
