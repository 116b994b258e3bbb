package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Policy defines how many times an operation is attempted and how long to
// wait between attempts. The delay grows linearly: BaseDelay * attempt.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Delay returns the wait before the attempt following the given (1-indexed) attempt.
func (p Policy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt)
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// wait is swapped in tests to avoid real sleeps.
var wait = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op until it succeeds or the policy is exhausted. Every error is
// treated as retryable. When the last attempt fails its error is returned
// as is, without wrapping.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	log := zerolog.Ctx(ctx)
	maxAttempts := p.attempts()

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err = op(ctx)
		if err == nil {
			return result, nil
		}

		if attempt == maxAttempts {
			break
		}

		delay := p.Delay(attempt)
		log.Warn().
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("delay", delay).
			Err(err).
			Msg("Attempt failed, retrying")

		if werr := wait(ctx, delay); werr != nil {
			var zero T
			return zero, werr
		}
	}

	log.Error().
		Int("max_attempts", maxAttempts).
		Err(err).
		Msg("All retry attempts exhausted")
	return result, err
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
