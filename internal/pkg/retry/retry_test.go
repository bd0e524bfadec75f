package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
)

func fastPolicy() Policy {
	return Policy{Attempts: 3, BaseDelay: 2 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
}

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	calls := 0
	var delays []time.Duration

	got, err := Do(context.Background(), fastPolicy(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.DatabaseError("connection reset", stderrors.New("eof"))
		}
		return "ok", nil
	}, func(_ int, _ error, next time.Duration) {
		delays = append(delays, next)
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	require.Len(t, delays, 2)
	assert.Equal(t, 2*time.Millisecond, delays[0])
	assert.Equal(t, 4*time.Millisecond, delays[1])
}

func TestDoNotFoundIsTerminal(t *testing.T) {
	calls := 0
	notFound := errors.NotFoundf("Job not found")

	_, err := Do(context.Background(), fastPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, notFound
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, notFound, err)
}

func TestDoReturnsLastError(t *testing.T) {
	calls := 0
	var last error

	_, err := Do(context.Background(), fastPolicy(), func(context.Context) (int, error) {
		calls++
		last = stderrors.New("attempt failed")
		return 0, last
	})

	assert.Equal(t, 3, calls)
	assert.Same(t, last, err)
}

func TestDoNotFoundOnLastAttempt(t *testing.T) {
	calls := 0
	notFound := errors.NotFound("Result")

	_, err := Do(context.Background(), fastPolicy(), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, stderrors.New("timeout")
		}
		return 0, notFound
	})

	assert.Equal(t, 3, calls)
	assert.Same(t, notFound, err)
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{Attempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 2}

	calls := 0
	_, err := Do(ctx, policy, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, stderrors.New("transient")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
