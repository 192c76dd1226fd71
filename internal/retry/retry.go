// Package retry implements the bounded exponential backoff with jitter
// described in §5 and §7 of the spec: three attempts for retryable error
// classes (network, service-unavailable), subprocess failures are never
// retried by design.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
)

// Policy configures the backoff schedule.
type Policy struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration
}

// Default is three attempts as mandated by §5 ("3 retries, exponential
// backoff with jitter"), capped so a stuck external service can't stall a
// session run indefinitely.
var Default = Policy{
	MaxAttempts: 3,
	Base:        200 * time.Millisecond,
	Cap:         10 * time.Second,
}

// Do calls fn, retrying on errors for which [a4ferr.Kind.Retryable] is true.
// Any other error, including context cancellation, returns immediately. fn
// takes no context argument because callers close over the one they mean
// to watch for cancellation.
func Do(ctx context.Context, p Policy, fn func() error) error {
	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}
		wait := backoff(p, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

func retryable(err error) bool {
	e, ok := err.(*a4ferr.Error)
	if !ok {
		return false
	}
	return e.Kind.Retryable()
}

// backoff returns base*2^attempt, capped, plus up to 50% jitter.
func backoff(p Policy, attempt int) time.Duration {
	d := p.Base << attempt
	if d > p.Cap || d <= 0 {
		d = p.Cap
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 2))
	return d + jitter
}
