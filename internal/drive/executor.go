package drive

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

const (
	// DefaultMaxRetries is the number of re-invocations after the first
	// failure before the error is surfaced.
	DefaultMaxRetries = 3

	// DefaultBaseDelay seeds the exponential backoff schedule.
	DefaultBaseDelay = 1000 * time.Millisecond
)

// Executor wraps remote calls with classification-driven retry. Retryable
// failures (5xx, rate limits) are re-issued with exponential backoff; fatal
// failures (auth, permissions, not-found) return immediately. Operations
// passed to Do are re-invoked whole on retry and must therefore be safely
// re-issuable.
type Executor struct {
	maxRetries int
	baseDelay  time.Duration

	// sleep is replaced in tests to observe the backoff schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor. Non-positive arguments select the
// defaults.
func NewExecutor(maxRetries int, baseDelay time.Duration) *Executor {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Executor{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do invokes fn, retrying on retryable errors with delays of
// baseDelay * 2^attempt. The final error is classified onto the engine's
// error kinds; op names the operation for logs and error messages.
func (e *Executor) Do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !shouldRetry(err) {
			return classify(op, err)
		}
		if attempt >= e.maxRetries {
			break
		}
		delay := e.baseDelay << uint(attempt)
		log.Printf("Retrying %s after %v (attempt %d/%d): %v", op, delay, attempt+1, e.maxRetries, err)
		if serr := e.sleep(ctx, delay); serr != nil {
			return fmt.Errorf("%s: %w", op, serr)
		}
	}

	// Retries exhausted: a retryable 403 means we were rate limited, a
	// 5xx means the service stayed unavailable.
	classified := classify(op, err)
	if errors.Is(classified, ErrRateLimited) || errors.Is(classified, ErrRemoteUnavailable) {
		return classified
	}
	return fmt.Errorf("%s: %w: %v", op, ErrRemoteUnavailable, err)
}
