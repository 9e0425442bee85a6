package kalshi

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"kalshigo/pkg/core"
)

// RetryPolicy bounds the retry loop for read-only calls.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseWait is the initial backoff delay.
	BaseWait time.Duration
	// MaxWait caps the exponential backoff.
	MaxWait time.Duration
}

// DefaultRetryPolicy retries reads three times with short backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseWait:    200 * time.Millisecond,
		MaxWait:     2 * time.Second,
	}
}

// Retryable reports whether an error is worth retrying for a read-only call:
// transport failures where no response arrived, rate-limit rejections, and
// server-side 5xx. Everything else reflects the request itself and will not
// improve on a resend.
func Retryable(err error) bool {
	if core.IsTransportError(err) {
		return true
	}
	if status, ok := core.IsHTTPError(err); ok {
		return status == http.StatusTooManyRequests || status >= 500
	}
	return false
}

// RetryRead runs fn with retries per the policy. It exists for GETs only;
// order submission and cancellation must never pass through here, since a
// transport error leaves the exchange-side outcome unknown and a blind
// resend could double an order.
func RetryRead(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	if policy.BaseWait > 0 {
		bo.InitialInterval = policy.BaseWait
	}
	if policy.MaxWait > 0 {
		bo.MaxInterval = policy.MaxWait
	}

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || !Retryable(err) || attempt >= attempts {
			return err
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			wait = policy.MaxWait
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
