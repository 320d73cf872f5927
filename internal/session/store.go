// Package session holds the in-memory chat sessions: the ordered collection,
// the active session, titles and the per-session send flag.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/idgen"
	"github.com/joss/agentchat/internal/logging"
)

// DefaultWelcome seeds every new session unless WithWelcome says otherwise.
const DefaultWelcome = "**Hello! I’m your Linera Ecosystem Assistant.**\n\n" +
	"I can answer questions about the protocol, guide you through the whitepaper, " +
	"or help you write and debug Linera smart contracts in Rust."

type entry struct {
	session domain.Session
	sending bool
}

// Store is the goroutine-safe session collection. Sessions are ordered
// most-recent-first; there is always exactly one active session.
//
// Every mutation runs to completion under the lock. Observers are called
// after the lock is released, so they may read the store freely.
type Store struct {
	mu       sync.RWMutex
	sessions []*entry
	activeID string

	welcome    string
	titleLimit int
	now        func() time.Time
	newID      func() string
	log        *logging.Logger

	subMu   sync.Mutex
	subs    map[int]func(domain.Event)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithWelcome sets the content of the message seeded into new sessions.
func WithWelcome(content string) Option {
	return func(s *Store) { s.welcome = content }
}

// WithTitleLimit sets how many runes of the first user message make the title.
func WithTitleLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.titleLimit = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the identifier source for sessions and messages.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a store holding one fresh, active session.
func NewStore(opts ...Option) *Store {
	s := &Store{
		welcome:    DefaultWelcome,
		titleLimit: DefaultTitleLimit,
		now:        time.Now,
		newID:      idgen.New,
		log:        logging.New("session"),
		subs:       make(map[int]func(domain.Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.CreateSession()
	return s
}

// Subscribe registers fn for every event. The returned func unregisters it.
func (s *Store) Subscribe(fn func(domain.Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(events []domain.Event) {
	if len(events) == 0 {
		return
	}
	s.subMu.Lock()
	fns := make([]func(domain.Event), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, e := range events {
		for _, fn := range fns {
			fn(e)
		}
	}
}

// CreateSession adds a seeded session at the front and makes it active.
func (s *Store) CreateSession() domain.Session {
	s.mu.Lock()
	e := s.createLocked()
	snap := snapshot(e)
	s.mu.Unlock()

	s.log.WithSession(snap.ID).Debug("session_created", nil)
	s.publish([]domain.Event{
		{Type: domain.EventSessionCreated, SessionID: snap.ID},
		{Type: domain.EventActiveChanged, SessionID: snap.ID},
	})
	return snap
}

func (s *Store) createLocked() *entry {
	now := s.now()
	e := &entry{session: domain.Session{
		ID:        idgen.SessionPrefix + s.newID(),
		Title:     domain.DefaultTitle,
		CreatedAt: now,
		Messages: []domain.Message{{
			ID:        s.newID(),
			Role:      domain.RoleAssistant,
			Content:   s.welcome,
			Timestamp: now,
		}},
	}}
	s.sessions = append([]*entry{e}, s.sessions...)
	s.activeID = e.session.ID
	return e
}

// SwitchActive makes id the active session. Unknown ids leave the active
// session unchanged and return false.
func (s *Store) SwitchActive(id string) bool {
	s.mu.Lock()
	if s.find(id) < 0 {
		s.mu.Unlock()
		return false
	}
	changed := s.activeID != id
	s.activeID = id
	s.mu.Unlock()

	if changed {
		s.publish([]domain.Event{{Type: domain.EventActiveChanged, SessionID: id}})
	}
	return true
}

// DeleteSession removes a session. Deleting the active one activates the
// first remaining session; deleting the last one creates a fresh session
// before returning. Unknown ids return false.
func (s *Store) DeleteSession(id string) bool {
	s.mu.Lock()
	idx := s.find(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)

	events := []domain.Event{{Type: domain.EventSessionDeleted, SessionID: id}}
	if s.activeID == id {
		if len(s.sessions) == 0 {
			created := s.createLocked()
			events = append(events, domain.Event{Type: domain.EventSessionCreated, SessionID: created.session.ID})
		} else {
			s.activeID = s.sessions[0].session.ID
		}
		events = append(events, domain.Event{Type: domain.EventActiveChanged, SessionID: s.activeID})
	}
	s.mu.Unlock()

	s.log.WithSession(id).Debug("session_deleted", nil)
	s.publish(events)
	return true
}

// AppendMessage adds msg to the end of a session's transcript. A missing ID
// or timestamp is filled in; a timestamp older than the previous message is
// raised to it. The first user message of a session still titled
// "New Chat" sets its title.
func (s *Store) AppendMessage(id string, msg domain.Message) (domain.Message, error) {
	if !msg.Role.Valid() {
		return domain.Message{}, fmt.Errorf("append message: invalid role %q", msg.Role)
	}

	s.mu.Lock()
	idx := s.find(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.Message{}, &NotFoundError{ID: id}
	}
	sess := &s.sessions[idx].session

	if msg.ID == "" {
		msg.ID = s.newID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	if last, ok := sess.LastMessage(); ok && msg.Timestamp.Before(last.Timestamp) {
		msg.Timestamp = last.Timestamp
	}
	sess.Messages = append(sess.Messages, msg)

	appended := msg
	events := []domain.Event{{Type: domain.EventMessageAppended, SessionID: id, Message: &appended}}
	if msg.Role == domain.RoleUser && sess.HasSentinelTitle() {
		sess.Title = TitleFromContent(msg.Content, s.titleLimit)
		events = append(events, domain.Event{Type: domain.EventTitleChanged, SessionID: id, Title: sess.Title})
	}
	s.mu.Unlock()

	s.publish(events)
	return msg, nil
}

// BeginSend marks a send in flight for id. It returns false when the session
// is unknown or already has a send in flight.
func (s *Store) BeginSend(id string) bool {
	s.mu.Lock()
	idx := s.find(id)
	if idx < 0 || s.sessions[idx].sending {
		s.mu.Unlock()
		return false
	}
	s.sessions[idx].sending = true
	s.mu.Unlock()

	s.publish([]domain.Event{{Type: domain.EventSendStarted, SessionID: id, Outcome: domain.SendSending}})
	return true
}

// EndSend clears the in-flight flag and reports how the send ended.
// Sessions deleted mid-flight are ignored.
func (s *Store) EndSend(id string, outcome domain.SendState) {
	s.mu.Lock()
	idx := s.find(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.sessions[idx].sending = false
	s.mu.Unlock()

	s.publish([]domain.Event{{Type: domain.EventSendSettled, SessionID: id, Outcome: outcome}})
}

// IsSending reports whether id has a send in flight.
func (s *Store) IsSending(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.find(id)
	return idx >= 0 && s.sessions[idx].sending
}

// Sessions returns snapshots of every session, most recent first.
func (s *Store) Sessions() []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, len(s.sessions))
	for i, e := range s.sessions {
		out[i] = snapshot(e)
	}
	return out
}

// Session returns a snapshot of one session.
func (s *Store) Session(id string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.find(id)
	if idx < 0 {
		return domain.Session{}, false
	}
	return snapshot(s.sessions[idx]), true
}

// Active returns a snapshot of the active session.
func (s *Store) Active() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(s.sessions[s.find(s.activeID)])
}

// ActiveID returns the id of the active session.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Messages returns a copy of a session's transcript, nil for unknown ids.
func (s *Store) Messages(id string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.find(id)
	if idx < 0 {
		return nil
	}
	return append([]domain.Message(nil), s.sessions[idx].session.Messages...)
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// find returns the index of id or -1. Callers hold the lock.
func (s *Store) find(id string) int {
	for i, e := range s.sessions {
		if e.session.ID == id {
			return i
		}
	}
	return -1
}

func snapshot(e *entry) domain.Session {
	sess := e.session
	sess.Messages = append([]domain.Message(nil), e.session.Messages...)
	return sess
}
