// Package retry provides bounded retry with exponential backoff for calls to
// rate-limited collaborators. A server-suggested wait, when the error carries
// one, overrides the computed backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DelayHinter is implemented by errors that carry a server-suggested wait
// interval, such as quota errors with a retry-after payload.
type DelayHinter interface {
	SuggestedDelay() (time.Duration, bool)
}

// Retryabler lets an error state whether another attempt can help at all.
type Retryabler interface {
	Retryable() bool
}

// Config holds the retry budget for one operation.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// GenerationConfig is the budget for generation-API calls: moderate attempts,
// patient delays, since quota windows are tens of seconds.
func GenerationConfig() Config {
	return Config{
		MaxAttempts:  4,
		InitialDelay: 5 * time.Second,
		MaxDelay:     2 * time.Minute,
		Multiplier:   2.0,
	}
}

// WithBackoff runs fn until it succeeds, exhausts the attempt budget, or hits
// a non-retryable error. Exhaustion returns the last error wrapped; it is a
// per-entry failure, never a reason to abort a whole run.
func WithBackoff(ctx context.Context, cfg Config, log *slog.Logger, fn func() error) error {
	if log == nil {
		log = slog.Default()
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				log.Info("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		wait := delay
		if suggested, ok := suggestedDelay(lastErr); ok && suggested > 0 {
			wait = suggested
		}
		if wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}

		log.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"wait", wait,
			"error", lastErr)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r Retryabler
	if errors.As(err, &r) {
		return r.Retryable()
	}
	// Unclassified errors default to retryable; the attempt budget bounds
	// the damage.
	return true
}

func suggestedDelay(err error) (time.Duration, bool) {
	var h DelayHinter
	if errors.As(err, &h) {
		return h.SuggestedDelay()
	}
	return 0, false
}
