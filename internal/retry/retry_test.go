package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordWaits(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	orig := wait
	wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	t.Cleanup(func() { wait = orig })
	return &waits
}

func TestDoAlwaysFailing(t *testing.T) {
	errBoom := errors.New("boom")

	for _, n := range []int{1, 2, 3, 5} {
		waits := recordWaits(t)
		calls := 0
		_, err := Do(context.Background(), Policy{MaxAttempts: n, BaseDelay: time.Second}, func(ctx context.Context) (int, error) {
			calls++
			return 0, errBoom
		})

		assert.Equal(t, n, calls)
		assert.Same(t, errBoom, err, "last error must be returned unwrapped")
		assert.Len(t, *waits, n-1)
	}
}

func TestDoLinearDelay(t *testing.T) {
	waits := recordWaits(t)

	_, _ = Do(context.Background(), Policy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond}, func(ctx context.Context) (string, error) {
		return "", errors.New("fail")
	})

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}, *waits)
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	recordWaits(t)

	calls := 0
	got, err := Do(context.Background(), DefaultPolicy(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoFirstAttemptSuccessDoesNotWait(t *testing.T) {
	waits := recordWaits(t)

	err := Run(context.Background(), DefaultPolicy(), func(ctx context.Context) error { return nil })

	require.NoError(t, err)
	assert.Empty(t, *waits)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	recordWaits(t)

	calls := 0
	_ = Run(context.Background(), Policy{}, func(ctx context.Context) error {
		calls++
		return errors.New("x")
	})

	assert.Equal(t, 1, calls)
}

func TestDoCancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Run(ctx, Policy{MaxAttempts: 3, BaseDelay: time.Hour}, func(ctx context.Context) error {
		calls++
		return errors.New("x")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPolicyDelay(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
}
