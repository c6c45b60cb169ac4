package worldstate

import "errors"

// Domain errors for world state keys.
var (
	// ErrEmptyKey indicates a key with an empty name.
	ErrEmptyKey = errors.New("worldstate: empty key")

	// ErrKindMismatch indicates a value or declaration disagrees with a key's kind.
	ErrKindMismatch = errors.New("worldstate: kind mismatch")

	// ErrUnknownKind indicates an unrecognized value kind.
	ErrUnknownKind = errors.New("worldstate: unknown kind")
)
