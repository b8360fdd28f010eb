package inference

import (
	"context"
	"strings"

	"github.com/avast/retry-go"
)

// IsRetryableError determines if an error should trigger a retry
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	// truncated bodies surface as decode errors
	if strings.Contains(errStr, "json.Unmarshal") || strings.Contains(errStr, "unexpected end of JSON input") {
		return true
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}
	if strings.Contains(errStr, "response error 5") || strings.Contains(errStr, "response error 429") {
		return true
	}
	return false
}

// WithRetry runs fn once plus up to retryAttempts retries of retryable errors, backing off between them.
func WithRetry(ctx context.Context, retryAttempts uint, fn func() error) error {
	return retry.Do(
		func() error {
			err := fn()
			if err != nil && !IsRetryableError(err) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(retryAttempts+1),
		retry.LastErrorOnly(true),
		retry.DelayType(retry.BackOffDelay),
	)
}
