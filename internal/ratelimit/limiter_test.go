package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitUnlimited(t *testing.T) {
	l := New("open-library", 0, 1)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
}

func TestWaitNilLimiter(t *testing.T) {
	var l *Limiter
	assert.NoError(t, l.Wait(context.Background()))
}

func TestWaitCancelled(t *testing.T) {
	l := New("worldcat", 0.01, 1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worldcat")
	assert.True(t, errors.Is(err, ErrThrottled))
}

func TestBurstAdmitsImmediately(t *testing.T) {
	l := New("openlibrary", 0.01, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	for i := 0; i < 4; i++ {
		require.NoError(t, l.Wait(ctx), "request %d", i+1)
	}
	assert.ErrorIs(t, l.Wait(ctx), ErrThrottled)
}

func TestBurstFloor(t *testing.T) {
	l := New("dnb", 1, 0)
	require.NoError(t, l.Wait(context.Background()))
}
