// Package retry runs an outcome-producing operation with bounded attempts.
package retry

import (
	"context"
	"time"

	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// Option configures Do.
type Option func(*options)

type options struct {
	sleep     func(ctx context.Context, d time.Duration) bool
	log       *logger.Logger
	onAttempt func(attempt int, o core.Outcome)
}

// WithSleeper replaces the inter-attempt wait. The sleeper is not
// interrupted by context cancellation.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(o *options) {
		o.sleep = func(ctx context.Context, d time.Duration) bool {
			sleep(d)
			return ctx.Err() == nil
		}
	}
}

// WithLogger logs each failed attempt.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithOnAttempt is called after every attempt with its 1-based number.
func WithOnAttempt(fn func(attempt int, o core.Outcome)) Option {
	return func(o *options) { o.onAttempt = fn }
}

// Do invokes op up to maxRetry times, returning the first success or the
// last failure. It waits interval between failed attempts but not after the
// last one. maxRetry below 1 is treated as 1.
//
// A cancelled context stops further attempts and returns the last outcome.
// There is no per-attempt deadline: a blocked op is bounded only by op itself.
func Do(ctx context.Context, op func() core.Outcome, maxRetry int, interval time.Duration, opts ...Option) core.Outcome {
	o := options{sleep: sleepCtx}
	for _, opt := range opts {
		opt(&o)
	}
	if maxRetry < 1 {
		maxRetry = 1
	}

	out := core.Fail(core.MessageCancelled)
	for attempt := 1; attempt <= maxRetry; attempt++ {
		if ctx.Err() != nil {
			return out
		}

		out = op()
		if o.onAttempt != nil {
			o.onAttempt(attempt, out)
		}
		if out.Success {
			return out
		}
		if attempt == maxRetry {
			break
		}

		o.log.Warn("Attempt %d/%d failed: %s. Retrying in %v", attempt, maxRetry, out.Message, interval)
		if interval > 0 && !o.sleep(ctx, interval) {
			return out
		}
	}
	return out
}

// sleepCtx waits d or until ctx is done. It reports whether the full wait
// elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
