package session

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound indicates the session id is unknown, usually because
// the session was deleted.
var ErrSessionNotFound = errors.New("session not found")

// NotFoundError wraps ErrSessionNotFound with the id that was looked up.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrSessionNotFound
}

// IsNotFound checks if an error is a session not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
