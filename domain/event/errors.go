package event

import "errors"

// Domain errors for journal operations.
var (
	// ErrInvalidEvent is returned when an event is malformed.
	ErrInvalidEvent = errors.New("event: invalid event")

	// ErrConnectionFailed is returned when connection to the store backend fails.
	ErrConnectionFailed = errors.New("event: store connection failed")

	// ErrUnknownBackend is returned for an unsupported journal backend name.
	ErrUnknownBackend = errors.New("event: unknown journal backend")
)
