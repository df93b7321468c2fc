package drive

import (
	"context"
	"errors"
	"testing"
	"time"
)

// newRecordingExecutor returns an executor whose backoff sleeps are
// recorded instead of performed.
func newRecordingExecutor(delays *[]time.Duration) *Executor {
	exec := NewExecutor(DefaultMaxRetries, DefaultBaseDelay)
	exec.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return exec
}

func TestRetryOn503ThenSuccess(t *testing.T) {
	var delays []time.Duration
	exec := newRecordingExecutor(&delays)

	calls := 0
	err := exec.Do(context.Background(), "test op", func() error {
		calls++
		if calls <= 2 {
			return apiError(503, "")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success after retries, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 invocations, got %d", calls)
	}

	want := []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("Expected %d backoff sleeps, got %d", len(want), len(delays))
	}
	for i, d := range want {
		if delays[i] != d {
			t.Errorf("Delay %d: expected %v, got %v", i, d, delays[i])
		}
	}
}

func TestRetryExhausted503(t *testing.T) {
	var delays []time.Duration
	exec := newRecordingExecutor(&delays)

	calls := 0
	err := exec.Do(context.Background(), "test op", func() error {
		calls++
		return apiError(503, "")
	})
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("Expected ErrRemoteUnavailable, got: %v", err)
	}
	if calls != DefaultMaxRetries+1 {
		t.Errorf("Expected %d invocations, got %d", DefaultMaxRetries+1, calls)
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("Expected delays %v, got %v", want, delays)
	}
	for i, d := range want {
		if delays[i] != d {
			t.Errorf("Delay %d: expected %v, got %v", i, d, delays[i])
		}
	}
}

func TestNoRetryOn404(t *testing.T) {
	var delays []time.Duration
	exec := newRecordingExecutor(&delays)

	calls := 0
	err := exec.Do(context.Background(), "test op", func() error {
		calls++
		return apiError(404, "notFound")
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single invocation, got %d", calls)
	}
	if len(delays) != 0 {
		t.Errorf("Expected no backoff sleeps, got %v", delays)
	}
}

func TestNoRetryOn401(t *testing.T) {
	var delays []time.Duration
	exec := newRecordingExecutor(&delays)

	calls := 0
	err := exec.Do(context.Background(), "test op", func() error {
		calls++
		return apiError(401, "authError")
	})
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("Expected ErrAuthExpired, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single invocation, got %d", calls)
	}
}

func TestRateLimit403Retried(t *testing.T) {
	var delays []time.Duration
	exec := newRecordingExecutor(&delays)

	calls := 0
	err := exec.Do(context.Background(), "test op", func() error {
		calls++
		return apiError(403, "userRateLimitExceeded")
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited, got: %v", err)
	}
	if calls != DefaultMaxRetries+1 {
		t.Errorf("Expected %d invocations, got %d", DefaultMaxRetries+1, calls)
	}
}

func TestPermission403NotRetried(t *testing.T) {
	var delays []time.Duration
	exec := newRecordingExecutor(&delays)

	calls := 0
	err := exec.Do(context.Background(), "test op", func() error {
		calls++
		return apiError(403, "insufficientFilePermissions")
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Expected ErrPermissionDenied, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single invocation, got %d", calls)
	}
}

func TestQuota403NotRetried(t *testing.T) {
	var delays []time.Duration
	exec := newRecordingExecutor(&delays)

	err := exec.Do(context.Background(), "test op", func() error {
		return apiError(403, "storageQuotaExceeded")
	})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Expected ErrQuotaExceeded, got: %v", err)
	}
}
