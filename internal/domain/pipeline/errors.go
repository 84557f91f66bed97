package pipeline

import "errors"

var (
	// ErrNotConfigured indicates publish credentials are absent. The batch
	// is logged locally and cleared; there is nothing retryable without
	// credentials.
	ErrNotConfigured = errors.New("publish not configured")
)
