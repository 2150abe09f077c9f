package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	talentErrors "talentsearch/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const maxRetryDelay = 30 * time.Second

// transientStatus lists upstream status codes worth another attempt
var transientStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// withRetry calls fn until it succeeds, fails with a permanent error, or
// maxRetries extra attempts are spent. Waits back off exponentially and end
// early when ctx is done.
func withRetry[T any](ctx context.Context, logger *talentErrors.Logger, operation string, maxRetries int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt)
			logger.Warn("Retrying completion call",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"delay", delay,
				"error", lastErr.Error())

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				logger.Info("Completion call succeeded after retry", "operation", operation, "attempts", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if !isTransient(err) {
			break
		}
	}

	return zero, fmt.Errorf("%s: %w", operation, lastErr)
}

// retryDelay is 2^(attempt-1) seconds plus up to 10% jitter, capped at maxRetryDelay
func retryDelay(attempt int) time.Duration {
	base := maxRetryDelay
	if attempt < 6 {
		base = time.Second << (attempt - 1)
	}
	jitter := time.Duration(rand.Int64N(int64(base)/10 + 1))
	return min(base+jitter, maxRetryDelay)
}

// isTransient reports whether err may clear up on its own. Context errors
// never do: the caller's budget is already spent.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return transientStatus[apiErr.Code]
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return transientStatus[genaiErr.Code]
	}
	return false
}
