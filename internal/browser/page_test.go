package browser

import (
	"context"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), time.Minute)
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled, "cancel releases the timer immediately")

	unbounded, cancel := withTimeout(context.Background(), 0)
	_, ok = unbounded.Deadline()
	assert.False(t, ok)
	cancel()
	assert.ErrorIs(t, unbounded.Err(), context.Canceled)
}

func TestBoundScopesPageContext(t *testing.T) {
	p := &rodPage{page: &rod.Page{}, timeout: time.Minute}

	page, cancel := p.bound(context.Background())
	opCtx := page.GetContext()
	_, ok := opCtx.Deadline()
	require.True(t, ok)
	require.NoError(t, opCtx.Err())

	cancel()
	assert.ErrorIs(t, opCtx.Err(), context.Canceled)
}
