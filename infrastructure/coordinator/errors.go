package coordinator

import "errors"

var (
	// ErrQueueFull indicates the request queue is at capacity.
	ErrQueueFull = errors.New("coordinator: queue full")

	// ErrManagerClosed indicates the manager no longer accepts requests.
	ErrManagerClosed = errors.New("coordinator: manager closed")

	// ErrAlreadyRunning indicates Start was called twice.
	ErrAlreadyRunning = errors.New("coordinator: already running")

	// ErrNilAgent indicates a request without a target agent.
	ErrNilAgent = errors.New("coordinator: nil agent")
)
