package settlement

import (
	"context"
	"time"
)

// RetrySettler retries intent submission with exponential backoff before
// giving up. Submissions are idempotent on the settlement side, keyed by
// pool and user.
type RetrySettler struct {
	inner      Settler
	maxRetries int
	baseDelay  time.Duration
}

var _ Settler = (*RetrySettler)(nil)

func WithRetries(inner Settler, maxRetries int, baseDelay time.Duration) *RetrySettler {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	return &RetrySettler{inner: inner, maxRetries: maxRetries, baseDelay: baseDelay}
}

func (r *RetrySettler) SubmitDeposit(ctx context.Context, intent Intent) (Reference, error) {
	return r.submit(ctx, intent, r.inner.SubmitDeposit)
}

func (r *RetrySettler) SubmitWithdraw(ctx context.Context, intent Intent) (Reference, error) {
	return r.submit(ctx, intent, r.inner.SubmitWithdraw)
}

func (r *RetrySettler) submit(ctx context.Context, intent Intent, fn func(context.Context, Intent) (Reference, error)) (Reference, error) {
	delay := r.baseDelay
	for attempt := 0; ; attempt++ {
		ref, err := fn(ctx, intent)
		if err == nil {
			return ref, nil
		}
		if attempt >= r.maxRetries {
			return "", err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
