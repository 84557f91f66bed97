package cart

import "errors"

var (
	// ErrNoEvents indicates a movement token was requested with no gestures.
	ErrNoEvents = errors.New("no gesture events provided")
	// ErrNoSignals indicates a composite was requested with no signals.
	ErrNoSignals = errors.New("no signals provided")
)
