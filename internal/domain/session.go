package domain

import (
	"time"
)

// DefaultTitle is the sentinel title a session carries until its first user message.
const DefaultTitle = "New Chat"

// Session is a snapshot of one conversation thread.
// The Messages slice is a copy; mutating it does not affect the store.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasSentinelTitle reports whether the title was never set from a user message.
func (s Session) HasSentinelTitle() bool {
	return s.Title == DefaultTitle
}

// LastMessage returns the newest message, if any.
func (s Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
