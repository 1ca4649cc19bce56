// Package errhandling provides error classification and retry utilities.
// This file implements retry with exponential backoff for transient
// failures, used by modules that touch networked storage.
package errhandling

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Default retry configuration values.
const (
	DefaultMaxAttempts       = 3
	DefaultDelayMs           = 1000
	DefaultBackoffMultiplier = 2.0
	DefaultMaxDelayMs        = 30000
	MaxRetryAttempts         = 10
	MinBackoffMultiplier     = 1.0
)

// RetryConfig holds retry configuration for module operations.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (1 = no retry).
	MaxAttempts int

	// DelayMs is the initial delay between retries in milliseconds.
	DelayMs int

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64

	// MaxDelayMs is the maximum delay between retries in milliseconds.
	MaxDelayMs int
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       DefaultMaxAttempts,
		DelayMs:           DefaultDelayMs,
		BackoffMultiplier: DefaultBackoffMultiplier,
		MaxDelayMs:        DefaultMaxDelayMs,
	}
}

// Validate checks the configuration for out-of-range values.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 || c.MaxAttempts > MaxRetryAttempts {
		return fmt.Errorf("maxAttempts must be between 1 and %d, got %d", MaxRetryAttempts, c.MaxAttempts)
	}
	if c.DelayMs < 0 {
		return fmt.Errorf("delayMs must be non-negative, got %d", c.DelayMs)
	}
	if c.BackoffMultiplier < MinBackoffMultiplier {
		return fmt.Errorf("backoffMultiplier must be at least %v, got %v", MinBackoffMultiplier, c.BackoffMultiplier)
	}
	if c.MaxDelayMs < c.DelayMs {
		return fmt.Errorf("maxDelayMs (%d) must not be smaller than delayMs (%d)", c.MaxDelayMs, c.DelayMs)
	}
	return nil
}

// CalculateDelay returns the backoff delay before the given attempt
// (1-based). The delay grows exponentially and is capped at MaxDelayMs.
func (c RetryConfig) CalculateDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return time.Duration(c.DelayMs) * time.Millisecond
	}
	delay := float64(c.DelayMs) * math.Pow(c.BackoffMultiplier, float64(attempt-1))
	if delay > float64(c.MaxDelayMs) {
		delay = float64(c.MaxDelayMs)
	}
	return time.Duration(delay) * time.Millisecond
}

// Retry runs fn until it succeeds, returns a fatal error, or the attempt
// budget is exhausted. The context cancels waiting between attempts.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if err := cfg.Validate(); err != nil {
		return NewValidationError("invalid retry config: %v", err)
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if IsFatal(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.CalculateDelay(attempt)):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}
