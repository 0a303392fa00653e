package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

type hintedErr struct {
	delay     time.Duration
	retryable bool
}

func (e *hintedErr) Error() string { return "rate limited" }

func (e *hintedErr) Retryable() bool { return e.retryable }

func (e *hintedErr) SuggestedDelay() (time.Duration, bool) { return e.delay, e.delay > 0 }

func TestWithBackoffSucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), nil, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithBackoffExhaustsBudget(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), nil, func() error {
		attempts++
		return errors.New("still failing")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithBackoffStopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	attempts := 0
	fatal := &hintedErr{retryable: false}
	err := WithBackoff(context.Background(), fastConfig(), nil, func() error {
		attempts++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("non-retryable error must not be retried, got %d attempts", attempts)
	}
}

func TestWithBackoffHonorsSuggestedDelay(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.MaxAttempts = 2
	cfg.MaxDelay = time.Second

	start := time.Now()
	suggested := 50 * time.Millisecond
	attempts := 0
	err := WithBackoff(context.Background(), cfg, nil, func() error {
		attempts++
		if attempts == 1 {
			return &hintedErr{delay: suggested, retryable: true}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < suggested {
		t.Fatalf("suggested delay ignored: waited only %v", elapsed)
	}
}

func TestWithBackoffAbortsOnContextCancel(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.InitialDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := WithBackoff(ctx, cfg, nil, func() error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
