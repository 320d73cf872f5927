// Package audit keeps a local SQLite log of send attempts for diagnostics.
// Conversations themselves are never stored here.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the outcome of an attempt.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusError        Status = "error"
	StatusUnconfigured Status = "unconfigured"
)

// Attempt is one gateway call made on behalf of a user message.
type Attempt struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	Endpoint    string    `json:"endpoint"`
	Status      Status    `json:"status"`
	StatusCode  int       `json:"status_code,omitempty"`
	Error       string    `json:"error,omitempty"`
	MessageSize int       `json:"message_size"`
	ReplySize   int       `json:"reply_size,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// NewAttempt starts an attempt record. An empty id gets a fresh uuid.
func NewAttempt(id, sessionID, userID string) Attempt {
	if id == "" {
		id = uuid.New().String()
	}
	return Attempt{
		ID:        id,
		SessionID: sessionID,
		UserID:    userID,
		StartedAt: time.Now(),
	}
}

// Finish stamps the duration and outcome.
func (a *Attempt) Finish(status Status, err error) {
	a.Status = status
	a.DurationMs = time.Since(a.StartedAt).Milliseconds()
	if err != nil {
		a.Error = err.Error()
	}
}
