package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 2, 100*time.Millisecond)

	if err := cb.Allow(); err != nil {
		t.Fatalf("closed breaker should allow: %v", err)
	}

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.GetState() != CircuitClosed {
		t.Error("breaker should stay closed below threshold")
	}

	cb.RecordFailure()
	if cb.GetState() != CircuitOpen {
		t.Error("breaker should open at threshold")
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker should fail fast, got: %v", err)
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	if cb.GetState() != CircuitOpen {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("breaker should probe after open timeout: %v", err)
	}
	if cb.GetState() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.GetState())
	}

	cb.RecordSuccess()
	cb.RecordSuccess()
	if cb.GetState() != CircuitClosed {
		t.Errorf("breaker should close after %d successes, got %s", 2, cb.GetState())
	}
}

func TestCircuitBreaker_FailureInHalfOpenReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	_ = cb.Allow() // transitions to half-open

	cb.RecordFailure()
	if cb.GetState() != CircuitOpen {
		t.Errorf("failure in half-open should reopen, got %s", cb.GetState())
	}
}

func TestRetryWithBackoff_NonRetriableStopsImmediately(t *testing.T) {
	c := &Client{retry: RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        time.Millisecond,
		BackoffMultiplier: 1.0,
		Timeout:           time.Second,
	}}

	calls := 0
	err := c.retryWithBackoff(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return errors.New("401 unauthorized")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-retriable error should not be retried, got %d calls", calls)
	}
}

func TestRetryWithBackoff_RetriesTransientErrors(t *testing.T) {
	c := &Client{retry: RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        time.Millisecond,
		BackoffMultiplier: 1.0,
		Timeout:           time.Second,
	}}

	calls := 0
	err := c.retryWithBackoff(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("429 rate limit exceeded")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		err       error
		retriable bool
	}{
		{nil, false},
		{errors.New("429 too many requests"), true},
		{errors.New("503 service unavailable"), true},
		{errors.New("connection refused"), true},
		{context.DeadlineExceeded, true},
		{errors.New("401 unauthorized"), false},
		{errors.New("400 bad request"), false},
		{errors.New("invalid api key"), false},
	}
	for _, tt := range tests {
		if got := isRetriableError(tt.err); got != tt.retriable {
			t.Errorf("isRetriableError(%v) = %v, want %v", tt.err, got, tt.retriable)
		}
	}
}
