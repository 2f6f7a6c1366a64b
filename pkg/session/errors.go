package session

import "errors"

var (
	// ErrNotFound is returned when a session ID is not in the store
	ErrNotFound = errors.New("session: not found")

	// ErrInvalid is returned when saving a session without an ID
	ErrInvalid = errors.New("session: missing id")
)
