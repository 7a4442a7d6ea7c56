package resilience

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig holds tuning knobs for [Retry].
type RetryConfig struct {
	// Attempts is the total number of tries including the first.
	// Default: 3.
	Attempts int

	// Delay is the wait before the first retry. Default: 1s.
	Delay time.Duration

	// Multiplier scales the delay after each failed attempt.
	// Default: 2.0.
	Multiplier float64
}

// Retry runs fn up to cfg.Attempts times, sleeping cfg.Delay (scaled by
// cfg.Multiplier after each failure) between attempts. It returns nil on the
// first success, the context error if ctx is cancelled while waiting, and
// otherwise the error from the final attempt wrapped with the attempt count.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}

	delay := cfg.Delay
	var err error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == cfg.Attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
	}
	return fmt.Errorf("after %d attempts: %w", cfg.Attempts, err)
}
