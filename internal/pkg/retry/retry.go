// Package retry wraps reads that may fail transiently.
package retry

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
)

// Policy controls the number of attempts and the delay between them.
type Policy struct {
	Attempts   uint
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultPolicy is three attempts, 200ms then 400ms apart.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2,
	}
}

// Observer is told about every failed attempt that will be retried.
type Observer func(attempt int, err error, next time.Duration)

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = p.MaxDelay
	if b.Multiplier < 1 {
		b.Multiplier = 2
	}
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	return b
}

// Do runs fn until it succeeds, fails with a terminal error, or the
// attempts are used up. Terminal errors (NOT_FOUND and other client
// errors) return after a single attempt. The last error is returned
// unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error), observers ...Observer) (T, error) {
	if p.Attempts == 0 {
		p.Attempts = 1
	}

	attempt := 0
	op := func() (T, error) {
		attempt++
		v, err := fn(ctx)
		if err != nil && !errors.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	notify := func(err error, next time.Duration) {
		for _, o := range observers {
			o(attempt, err, next)
		}
	}

	v, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.Attempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if stderrors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
	}
	return v, err
}
