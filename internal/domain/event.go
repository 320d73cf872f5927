package domain

// EventType classifies state changes published by the session store.
type EventType string

const (
	EventSessionCreated  EventType = "session_created"
	EventSessionDeleted  EventType = "session_deleted"
	EventActiveChanged   EventType = "active_changed"
	EventMessageAppended EventType = "message_appended"
	EventTitleChanged    EventType = "title_changed"
	EventSendStarted     EventType = "send_started"
	EventSendSettled     EventType = "send_settled"
)

// SendState is the lifecycle of one send operation.
type SendState string

const (
	SendIdle    SendState = "idle"
	SendSending SendState = "sending"
	SendSuccess SendState = "success"
	SendFailed  SendState = "failed"
)

// Event is a state-change notification for observers (views, loggers).
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionID"`
	Message   *Message  `json:"message,omitempty"`
	Title     string    `json:"title,omitempty"`
	Outcome   SendState `json:"outcome,omitempty"`
}
