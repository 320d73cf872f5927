package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError means the connection settings are incomplete.
// No request was made.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("agent connection not configured: missing %s", strings.Join(e.Missing, ", "))
}

// TransportError covers every failure after the request was attempted:
// network errors, non-2xx statuses and unreadable response bodies.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		if e.StatusCode != 0 {
			return fmt.Sprintf("agent API %d response: %v", e.StatusCode, e.Err)
		}
		return fmt.Sprintf("agent API request failed: %v", e.Err)
	}
	return fmt.Sprintf("agent API error: %d %s - %s", e.StatusCode, e.Status, excerpt(e.Body))
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsConfigurationError checks if err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsTransportError checks if err is a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

func excerpt(body string) string {
	body = strings.TrimSpace(body)
	if len(body) <= maxExcerpt {
		return body
	}
	cut := maxExcerpt
	// Back up to a rune boundary.
	for cut > 0 && !isRuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
