// Package idgen produces opaque identifiers for messages, sessions and users.
package idgen

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

const (
	UserPrefix    = "user_"
	SessionPrefix = "session_"
)

// New returns a short, URL and JSON safe identifier that is unique within the process.
func New() string {
	return strings.ToLower(ulid.Make().String())
}

// WithPrefix returns prefix followed by a fresh identifier.
// The prefix only helps humans reading logs.
func WithPrefix(prefix string) string {
	return prefix + New()
}

// UserID returns a fresh per-process user identity.
func UserID() string {
	return WithPrefix(UserPrefix)
}

// SessionID returns a fresh session identity.
func SessionID() string {
	return WithPrefix(SessionPrefix)
}
