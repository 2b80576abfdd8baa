package core

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Startup readiness polling: up to 50 checks, 100ms apart (about 5 seconds).
const (
	DimensionPollAttempts = 50
	DimensionPollInterval = 100 * time.Millisecond
)

// RetryPolicy bounds a retry loop by attempt count and a fixed interval.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// DimensionPolicy is the default readiness policy for frame sources.
var DimensionPolicy = RetryPolicy{
	MaxAttempts: DimensionPollAttempts,
	Interval:    DimensionPollInterval,
}

// Retry calls op until it succeeds, the policy's attempts run out, or ctx is
// done. It sleeps Interval between attempts, never after the last one. On
// exhaustion the returned error wraps ErrRetryExhausted and carries the last
// failure in its message.
func Retry(ctx context.Context, policy RetryPolicy, op func(attempt int) error) error {
	if policy.MaxAttempts < 1 {
		return errors.Errorf("retry: max attempts must be positive, got %d", policy.MaxAttempts)
	}

	var last error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if last = op(attempt); last == nil {
			return nil
		}
		if attempt == policy.MaxAttempts {
			break
		}

		timer := time.NewTimer(policy.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return errors.Wrapf(ErrRetryExhausted, "%d attempts, last error: %v", policy.MaxAttempts, last)
}
