package conversation

import (
	"errors"

	"github.com/joss/agentchat/internal/session"
)

// Rejections. A rejected submission changes nothing.
var (
	// ErrEmptyMessage means the text was empty after trimming whitespace.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSendInFlight means the session already waits for a reply.
	ErrSendInFlight = errors.New("a message is already being sent in this session")

	// ErrSessionNotFound means the session does not exist.
	ErrSessionNotFound = session.ErrSessionNotFound
)
