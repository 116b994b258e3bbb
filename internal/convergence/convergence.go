package convergence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"linkstat/internal/browser"
	"linkstat/internal/retry"
)

// ErrNotStabilized is returned when the page keeps growing past MaxIterations.
var ErrNotStabilized = errors.New("page height did not stabilize")

// Options controls the scroll loop.
type Options struct {
	// Settle is the pause after each scroll before measuring again.
	Settle time.Duration
	// MaxIterations caps the number of scrolls; zero or less means no cap.
	MaxIterations int
}

// DefaultOptions returns a 2s settle interval and a cap of 50 scrolls.
func DefaultOptions() Options {
	return Options{
		Settle:        2 * time.Second,
		MaxIterations: 50,
	}
}

var sleep = func(ctx context.Context, d time.Duration) error {
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

// LoadAll scrolls page to the bottom until its height stops growing. The
// whole loop is one retryable unit.
func LoadAll(ctx context.Context, page browser.Page, opts Options, policy retry.Policy) error {
	return retry.Run(ctx, policy, func(ctx context.Context) error {
		scrolls, err := converge(ctx, page, opts)
		if err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().Int("scrolls", scrolls).Msg("Page content fully loaded")
		return nil
	})
}

func converge(ctx context.Context, page browser.Page, opts Options) (int, error) {
	log := zerolog.Ctx(ctx)

	height, err := page.ScrollHeight(ctx)
	if err != nil {
		return 0, err
	}

	scrolls := 0
	for {
		if opts.MaxIterations > 0 && scrolls >= opts.MaxIterations {
			return scrolls, fmt.Errorf("%w after %d scrolls (height %d)", ErrNotStabilized, scrolls, height)
		}

		if err := page.ScrollToBottom(ctx); err != nil {
			return scrolls, err
		}
		scrolls++

		if err := sleep(ctx, opts.Settle); err != nil {
			return scrolls, err
		}

		next, err := page.ScrollHeight(ctx)
		if err != nil {
			return scrolls, err
		}
		log.Debug().Int("scroll", scrolls).Int("height", next).Msg("Measured page height")

		if next <= height {
			return scrolls, nil
		}
		height = next
	}
}
