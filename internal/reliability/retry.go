package reliability

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy retries an operation on connection-establishment failure, waiting a
// base delay plus random jitter between attempts. All other errors surface
// immediately. State is per-call; a Policy value may be shared freely.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	JitterMin   time.Duration
	JitterMax   time.Duration
}

// DefaultPolicy returns the stock policy: 5 attempts, 5s base delay, 1-3s of
// jitter between attempts.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   5 * time.Second,
		JitterMin:   1 * time.Second,
		JitterMax:   3 * time.Second,
	}
}

// Execute runs op, retrying retryable failures up to MaxAttempts total
// invocations. Exhausting all attempts returns the last error.
func (p Policy) Execute(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&jitteredBackOff{
			base:      p.BaseDelay,
			jitterMin: p.JitterMin,
			jitterMax: p.JitterMax,
		}, uint64(attempts-1)),
		ctx,
	)

	return backoff.Retry(func() error {
		if err := op(); err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, b)
}

// jitteredBackOff waits a constant base delay plus uniform random jitter.
type jitteredBackOff struct {
	base      time.Duration
	jitterMin time.Duration
	jitterMax time.Duration
}

func (b *jitteredBackOff) NextBackOff() time.Duration {
	jitter := b.jitterMin
	if span := b.jitterMax - b.jitterMin; span > 0 {
		jitter += time.Duration(rand.Int63n(int64(span)))
	}
	return b.base + jitter
}

func (b *jitteredBackOff) Reset() {}

// isRetryable defers to the error's own classification. Errors that do not
// declare themselves retryable are permanent.
func isRetryable(err error) bool {
	type retryable interface {
		IsRetryable() bool
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		if r, ok := e.(retryable); ok {
			return r.IsRetryable()
		}
	}
	return false
}
