package llm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy controls how blocking model calls are retried. MaxRetries
// counts additional attempts after the first; a zero policy disables
// retries entirely.
type RetryPolicy struct {
	MaxRetries        int
	BaseDelay         float64 // seconds
	MaxDelay          float64 // seconds
	BackoffMultiplier float64
	Jitter            bool
	OnRetry           func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy is applied by NewClient unless overridden.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         1.0,
		MaxDelay:          30.0,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Delay returns the backoff for the given attempt (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := math.Min(p.BaseDelay*math.Pow(p.BackoffMultiplier, float64(attempt)), p.MaxDelay)
	if p.Jitter {
		delay *= 0.5 + rand.Float64() // +/- 50%
	}
	return time.Duration(delay * float64(time.Second))
}

// waitFor picks the delay before the next attempt. A rate-limited error
// carrying a Retry-After hint overrides the backoff; a hint beyond
// MaxDelay gives up instead of waiting.
func (p RetryPolicy) waitFor(err error, attempt int) (time.Duration, bool) {
	if rl, ok := err.(*RateLimitError); ok && rl.RetryAfter != nil {
		hinted := time.Duration(*rl.RetryAfter * float64(time.Second))
		if hinted > time.Duration(p.MaxDelay*float64(time.Second)) {
			return 0, false
		}
		return hinted, true
	}
	return p.Delay(attempt), true
}

// Retry runs fn, retrying retryable errors up to policy.MaxRetries times.
// Context cancellation during a backoff wait aborts immediately.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	result, err := fn(ctx)
	for attempt := 0; err != nil && attempt < policy.MaxRetries; attempt++ {
		if !IsRetryable(err) {
			return zero, err
		}
		delay, ok := policy.waitFor(err, attempt)
		if !ok {
			return zero, err
		}
		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt+1, delay)
		}
		select {
		case <-ctx.Done():
			return zero, &AbortError{ClientError: ClientError{Message: "request cancelled during retry", Cause: ctx.Err()}}
		case <-time.After(delay):
		}
		result, err = fn(ctx)
	}
	if err != nil {
		return zero, err
	}
	return result, nil
}
