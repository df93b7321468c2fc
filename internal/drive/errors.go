package drive

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// Error kinds surfaced by the folder engine. Callers match these with
// errors.Is; the underlying transport error text is preserved in the
// wrapping message.
var (
	ErrEmptyName         = errors.New("folder name is empty")
	ErrAuthExpired       = errors.New("authentication expired")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrQuotaExceeded     = errors.New("storage quota exceeded")
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrRemoteUnavailable = errors.New("remote service unavailable")
)

// shouldRetry reports whether err rates being retried: any 5xx, or a 403
// whose first reason is one of the Drive rate/quota reasons.
func shouldRetry(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code >= 500 && gerr.Code < 600 {
		return true
	}
	if gerr.Code == 403 && len(gerr.Errors) > 0 {
		switch gerr.Errors[0].Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded":
			return true
		}
	}
	return false
}

// classify maps a remote error onto the engine's error kinds. Retryable
// errors only reach this point once retries are exhausted.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case gerr.Code == 401:
		return fmt.Errorf("%s: %w: %v", op, ErrAuthExpired, err)
	case gerr.Code == 404:
		return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
	case gerr.Code == 403:
		if shouldRetry(err) {
			return fmt.Errorf("%s: %w: %v", op, ErrRateLimited, err)
		}
		if len(gerr.Errors) > 0 {
			switch gerr.Errors[0].Reason {
			case "storageQuotaExceeded", "activeItemCreationLimitExceeded":
				return fmt.Errorf("%s: %w: %v", op, ErrQuotaExceeded, err)
			}
		}
		return fmt.Errorf("%s: %w: %v", op, ErrPermissionDenied, err)
	case gerr.Code >= 500 && gerr.Code < 600:
		return fmt.Errorf("%s: %w: %v", op, ErrRemoteUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// alreadyExists reports whether err is the remote's conflict response for a
// create that raced with another writer (e.g. a second process instance).
func alreadyExists(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == 409
}
