// Package clients provides the resilient HTTP client shared by the AI
// provider adapters.
package clients

import (
	"errors"
	"fmt"
)

// Client errors are infrastructure failures. The acl package translates
// them into domain errors.
var (
	// ErrCircuitOpen is returned while the breaker is rejecting calls to an
	// unhealthy provider.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last attempt's error once retries are exhausted.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrBodyNotReplayable is returned when a retry needs a request body
	// that cannot be read again.
	ErrBodyNotReplayable = errors.New("request body cannot be replayed")
)

// StatusError records a retryable HTTP status that was still failing on the
// last attempt.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider responded %d", e.StatusCode)
}
