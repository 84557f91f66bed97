package activity

import "errors"

var (
	// ErrInvalidInput indicates invalid input for log operations.
	ErrInvalidInput = errors.New("invalid activity input")
	// ErrBadFormat indicates a persisted log payload that cannot be read back.
	ErrBadFormat = errors.New("unreadable activity log format")
)
