// Package conversation turns user input into transcript entries: it appends
// the user's message, calls the agent gateway once and appends either the
// reply or a fixed failure notice.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joss/agentchat/internal/audit"
	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/gateway"
	"github.com/joss/agentchat/internal/idgen"
	"github.com/joss/agentchat/internal/logging"
	"github.com/joss/agentchat/internal/session"
)

// Transcript notices shown instead of raw errors.
const (
	DefaultFailureNotice = "Sorry, I encountered an error connecting to the Linera AI server. " +
		"Please check your connection or try again later."
	DefaultConfigNotice = "The assistant is not configured yet. Use /config to set the connection settings and try again."
)

const recordTimeout = 2 * time.Second

// Sender delivers one message to the remote agent.
type Sender interface {
	Send(ctx context.Context, message, userID, sessionID string, cfg domain.ConnectionConfig) (string, error)
}

// ConnectionSource yields the connection settings in effect.
type ConnectionSource interface {
	Current() domain.ConnectionConfig
}

// Recorder keeps a diagnostic record of each attempt.
type Recorder interface {
	Record(ctx context.Context, a audit.Attempt) error
}

// Result describes one settled send.
type Result struct {
	SessionID string
	RequestID string
	User      domain.Message
	Reply     domain.Message // assistant reply or failure notice; zero if discarded
	Outcome   domain.SendState
	Err       error // gateway error when Outcome is SendFailed
	Discarded bool  // the session was deleted before the reply arrived
}

// Orchestrator runs the submit flow against a session store.
type Orchestrator struct {
	store   *session.Store
	gateway Sender
	conn    ConnectionSource

	userID        string
	log           *logging.Logger
	recorder      Recorder
	failureRole   domain.Role
	failureNotice string
	configNotice  string
	now           func() time.Time

	wg sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithUserID fixes the per-process user identity.
func WithUserID(id string) Option {
	return func(o *Orchestrator) { o.userID = id }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithRecorder records every gateway attempt.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithFailureNotice sets the role and content of the transcript entry
// appended when a send fails.
func WithFailureNotice(role domain.Role, content string) Option {
	return func(o *Orchestrator) {
		if role.Valid() {
			o.failureRole = role
		}
		o.failureNotice = content
	}
}

// WithConfigNotice sets the content appended when connection settings are
// incomplete.
func WithConfigNotice(content string) Option {
	return func(o *Orchestrator) { o.configNotice = content }
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator.
func New(store *session.Store, gw Sender, conn ConnectionSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:         store,
		gateway:       gw,
		conn:          conn,
		userID:        idgen.UserID(),
		log:           logging.New("conversation"),
		failureRole:   domain.RoleSystem,
		failureNotice: DefaultFailureNotice,
		configNotice:  DefaultConfigNotice,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// UserID returns the identity sent with every message.
func (o *Orchestrator) UserID() string {
	return o.userID
}

// Submit starts a send and returns immediately. It returns false and does
// nothing when the text is blank, the session is unknown or a send is
// already in flight for it. On true the user's message is already in the
// transcript; the reply or notice follows asynchronously.
func (o *Orchestrator) Submit(sessionID, text string) bool {
	user, err := o.begin(sessionID, text)
	if err != nil {
		o.log.WithSession(sessionID).Debug("submit_rejected", map[string]interface{}{"reason": err.Error()})
		return false
	}

	o.wg.Add(1)
	logging.SafeGo("conversation", func() {
		defer o.wg.Done()
		o.dispatch(context.Background(), sessionID, user)
	})
	return true
}

// Send runs the whole flow synchronously. Rejections come back as errors
// (ErrEmptyMessage, ErrSendInFlight, ErrSessionNotFound) with nothing
// changed. A failed gateway call is not an error here: it is reported in
// Result.Outcome and Result.Err, and the notice is already in the transcript.
func (o *Orchestrator) Send(ctx context.Context, sessionID, text string) (Result, error) {
	user, err := o.begin(sessionID, text)
	if err != nil {
		return Result{}, err
	}
	o.wg.Add(1)
	defer o.wg.Done()
	return o.dispatch(ctx, sessionID, user), nil
}

// Wait blocks until every send started so far has settled.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// begin validates, claims the session's send slot and appends the user's
// message.
func (o *Orchestrator) begin(sessionID, text string) (domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, ErrEmptyMessage
	}
	if !o.store.BeginSend(sessionID) {
		if _, ok := o.store.Session(sessionID); !ok {
			return domain.Message{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return domain.Message{}, ErrSendInFlight
	}

	user, err := o.store.AppendMessage(sessionID, domain.Message{
		ID:        idgen.New(),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: o.now(),
	})
	if err != nil {
		// Deleted between BeginSend and here.
		o.store.EndSend(sessionID, domain.SendIdle)
		return domain.Message{}, err
	}
	return user, nil
}

// dispatch calls the gateway and reconciles the transcript. The send slot
// is released on every path.
func (o *Orchestrator) dispatch(ctx context.Context, sessionID string, user domain.Message) (res Result) {
	requestID := logging.NewRequestID()
	ctx = logging.WithRequestID(ctx, requestID)
	log := o.log.WithSession(sessionID).WithRequest(requestID)

	res = Result{SessionID: sessionID, RequestID: requestID, User: user, Outcome: domain.SendFailed}
	defer func() {
		o.store.EndSend(sessionID, res.Outcome)
	}()

	cfg := o.conn.Current()
	attempt := audit.NewAttempt(requestID, sessionID, o.userID)
	attempt.Endpoint = cfg.EndpointURL
	attempt.MessageSize = len(user.Content)

	reply, err := o.call(ctx, user.Content, sessionID, cfg)

	var entry domain.Message
	switch {
	case err == nil:
		res.Outcome = domain.SendSuccess
		attempt.ReplySize = len(reply)
		attempt.Finish(audit.StatusSuccess, nil)
		entry = domain.Message{ID: idgen.New(), Role: domain.RoleAssistant, Content: reply, Timestamp: o.now()}
	case gateway.IsConfigurationError(err):
		res.Err = err
		attempt.Finish(audit.StatusUnconfigured, err)
		log.Warn("send_unconfigured", nil, err)
		entry = domain.Message{ID: idgen.New(), Role: o.failureRole, Content: o.configNotice, Timestamp: o.now()}
	default:
		res.Err = err
		attempt.StatusCode = gateway.StatusCode(err)
		attempt.Finish(audit.StatusError, err)
		log.Error("send_failed", map[string]interface{}{"status": attempt.StatusCode}, err)
		entry = domain.Message{ID: idgen.New(), Role: o.failureRole, Content: o.failureNotice, Timestamp: o.now()}
	}
	o.record(attempt)

	stored, appendErr := o.store.AppendMessage(sessionID, entry)
	if appendErr != nil {
		if errors.Is(appendErr, session.ErrSessionNotFound) {
			res.Discarded = true
			log.Debug("reply_discarded", map[string]interface{}{"outcome": string(res.Outcome)})
			return res
		}
		log.Error("append_failed", nil, appendErr)
		return res
	}
	res.Reply = stored
	return res
}

// call invokes the gateway, turning a panic into an ordinary failure.
func (o *Orchestrator) call(ctx context.Context, text, sessionID string, cfg domain.ConnectionConfig) (reply string, err error) {
	err = logging.NewRecoveryHandler("gateway").WrapError(func() error {
		var sendErr error
		reply, sendErr = o.gateway.Send(ctx, text, o.userID, sessionID, cfg)
		return sendErr
	})
	return reply, err
}

// record stores the attempt without failing the send.
func (o *Orchestrator) record(a audit.Attempt) {
	if o.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := o.recorder.Record(ctx, a); err != nil {
		o.log.WithSession(a.SessionID).Warn("audit_record_failed", nil, err)
	}
}
