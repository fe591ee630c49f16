package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

var (
	// ErrSyncInProgress is returned when a trigger fires while a sync is
	// already in flight. The trigger is dropped, not queued.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrSyncLoopDetected is returned when the pull loop hits its iteration
	// cap while the server still reports more pages. It indicates a server
	// or cursor defect, not a connectivity problem.
	ErrSyncLoopDetected = errors.New("sync loop detected")
)

// APIError is a non-2xx response from the sync server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sync server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sync server returned %d", e.StatusCode)
}

// IsConnectivityError reports whether an error means the server could not be
// reached at all: timeouts, refused or reset connections, dial and DNS
// failures. A 429 or 5xx response proves the opposite, so HTTP statuses are
// never connectivity errors; those back off under the normal cooldown
// instead of counting as reconnect-after-offline.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Unwrapped dial/DNS failures surface as *net.OpError.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsTransient reports whether an error is an expected consequence of
// intermittent conditions: connectivity loss, server 5xx and rate limiting.
// Transient failures are not logged as errors; the next trigger simply
// retries from the persisted cursors.
func IsTransient(err error) bool {
	if IsConnectivityError(err) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}

	return false
}
