package session

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/agentchat/internal/domain"
)

// seqIDs returns a deterministic id generator.
func seqIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id%03d", n.Add(1)) }
}

// fakeClock advances one second per call.
func fakeClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(opts ...Option) *Store {
	base := []Option{WithIDGenerator(seqIDs()), WithClock(fakeClock()), WithWelcome("Welcome!")}
	return NewStore(append(base, opts...)...)
}

func userMsg(content string) domain.Message {
	return domain.Message{Role: domain.RoleUser, Content: content}
}

func TestNewStoreHasOneActiveSeededSession(t *testing.T) {
	s := newTestStore()

	require.Equal(t, 1, s.Len())
	active := s.Active()
	assert.Equal(t, s.ActiveID(), active.ID)
	assert.True(t, strings.HasPrefix(active.ID, "session_"))
	assert.Equal(t, domain.DefaultTitle, active.Title)
	require.Len(t, active.Messages, 1)
	assert.Equal(t, domain.RoleAssistant, active.Messages[0].Role)
	assert.Equal(t, "Welcome!", active.Messages[0].Content)
}

func TestCreateSessionIsFrontAndActive(t *testing.T) {
	s := newTestStore()
	first := s.ActiveID()

	created := s.CreateSession()

	assert.Equal(t, created.ID, s.ActiveID())
	sessions := s.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, created.ID, sessions[0].ID)
	assert.Equal(t, first, sessions[1].ID)
	assert.NotEqual(t, sessions[0].Messages[0].ID, sessions[1].Messages[0].ID,
		"each welcome message has its own id")
}

func TestEverySessionStartsWithWelcome(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 5; i++ {
		s.CreateSession()
	}
	for _, sess := range s.Sessions() {
		require.NotEmpty(t, sess.Messages)
		assert.Equal(t, domain.RoleAssistant, sess.Messages[0].Role)
		assert.Equal(t, "Welcome!", sess.Messages[0].Content)
	}
}

func TestSwitchActive(t *testing.T) {
	s := newTestStore()
	a := s.ActiveID()
	b := s.CreateSession().ID

	assert.True(t, s.SwitchActive(a))
	assert.Equal(t, a, s.ActiveID())

	assert.False(t, s.SwitchActive("session_missing"))
	assert.Equal(t, a, s.ActiveID(), "unknown id keeps the previous active session")

	assert.True(t, s.SwitchActive(b))
	assert.Equal(t, b, s.ActiveID())
}

func TestDeleteActiveActivatesFirstRemaining(t *testing.T) {
	s := newTestStore()
	a := s.ActiveID()
	b := s.CreateSession().ID
	c := s.CreateSession().ID // order: c, b, a

	require.True(t, s.DeleteSession(c))

	assert.Equal(t, b, s.ActiveID())
	assert.Equal(t, 2, s.Len())
	_, ok := s.Session(c)
	assert.False(t, ok)
	_, ok = s.Session(a)
	assert.True(t, ok)
}

func TestDeleteInactiveKeepsActive(t *testing.T) {
	s := newTestStore()
	a := s.ActiveID()
	b := s.CreateSession().ID

	require.True(t, s.DeleteSession(a))
	assert.Equal(t, b, s.ActiveID())
	assert.Equal(t, 1, s.Len())
}

func TestDeleteLastSessionCreatesExactlyOneSeeded(t *testing.T) {
	s := newTestStore()
	only := s.ActiveID()

	require.True(t, s.DeleteSession(only))

	require.Equal(t, 1, s.Len())
	active := s.Active()
	assert.NotEqual(t, only, active.ID)
	assert.Equal(t, domain.DefaultTitle, active.Title)
	require.Len(t, active.Messages, 1)
	assert.Equal(t, "Welcome!", active.Messages[0].Content)
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	s := newTestStore()
	active := s.ActiveID()

	assert.False(t, s.DeleteSession("session_missing"))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, active, s.ActiveID())
}

func TestAppendMessageOrderAndTitle(t *testing.T) {
	s := newTestStore()
	id := s.ActiveID()

	_, err := s.AppendMessage(id, userMsg("Explain FastPay consensus"))
	require.NoError(t, err)
	_, err = s.AppendMessage(id, domain.Message{Role: domain.RoleAssistant, Content: "Sure."})
	require.NoError(t, err)
	_, err = s.AppendMessage(id, userMsg("And now something else entirely, please"))
	require.NoError(t, err)

	sess, ok := s.Session(id)
	require.True(t, ok)
	assert.Equal(t, "Explain FastPay consensus", sess.Title, "the title changes only once")

	var contents []string
	for _, m := range sess.Messages {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"Welcome!", "Explain FastPay consensus", "Sure.", "And now something else entirely, please"}, contents)
}

func TestAppendMessageLongTitleIsCut(t *testing.T) {
	s := newTestStore()
	id := s.ActiveID()

	_, err := s.AppendMessage(id, userMsg("What are the main differences between microchains and shards?"))
	require.NoError(t, err)

	sess, _ := s.Session(id)
	assert.Equal(t, "What are the main differences ...", sess.Title)
}

func TestAppendMessageAssistantDoesNotSetTitle(t *testing.T) {
	s := newTestStore()
	id := s.ActiveID()

	_, err := s.AppendMessage(id, domain.Message{Role: domain.RoleSystem, Content: "notice"})
	require.NoError(t, err)

	sess, _ := s.Session(id)
	assert.Equal(t, domain.DefaultTitle, sess.Title)
}

func TestAppendMessageCustomTitleLimit(t *testing.T) {
	s := newTestStore(WithTitleLimit(5))
	id := s.ActiveID()

	_, err := s.AppendMessage(id, userMsg("abcdefgh"))
	require.NoError(t, err)

	sess, _ := s.Session(id)
	assert.Equal(t, "abcde...", sess.Title)
}

func TestAppendMessageFillsIDAndClampsTimestamp(t *testing.T) {
	s := newTestStore()
	id := s.ActiveID()

	stored, err := s.AppendMessage(id, domain.Message{
		Role:      domain.RoleUser,
		Content:   "from the past",
		Timestamp: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)

	msgs := s.Messages(id)
	require.Len(t, msgs, 2)
	assert.False(t, msgs[1].Timestamp.Before(msgs[0].Timestamp))
}

func TestAppendMessageUnknownSession(t *testing.T) {
	s := newTestStore()

	_, err := s.AppendMessage("session_gone", userMsg("hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, IsNotFound(err))
}

func TestAppendMessageInvalidRole(t *testing.T) {
	s := newTestStore()
	_, err := s.AppendMessage(s.ActiveID(), domain.Message{Role: "robot", Content: "x"})
	assert.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestSnapshotsAreIsolated(t *testing.T) {
	s := newTestStore()
	id := s.ActiveID()

	snap := s.Active()
	snap.Messages[0].Content = "mutated"
	snap.Messages = append(snap.Messages, userMsg("sneaky"))

	msgs := s.Messages(id)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Welcome!", msgs[0].Content)
}

func TestBeginEndSend(t *testing.T) {
	s := newTestStore()
	id := s.ActiveID()

	assert.False(t, s.IsSending(id))
	require.True(t, s.BeginSend(id))
	assert.True(t, s.IsSending(id))
	assert.False(t, s.BeginSend(id), "second send on the same session is refused")

	other := s.CreateSession().ID
	assert.True(t, s.BeginSend(other), "sessions have independent flags")

	s.EndSend(id, domain.SendSuccess)
	assert.False(t, s.IsSending(id))
	assert.True(t, s.IsSending(other))

	assert.False(t, s.BeginSend("session_missing"))
	assert.NotPanics(t, func() { s.EndSend("session_missing", domain.SendFailed) })
}

func TestBeginSendIsAtomic(t *testing.T) {
	s := newTestStore()
	id := s.ActiveID()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.BeginSend(id) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestSubscribeEvents(t *testing.T) {
	s := newTestStore()
	id := s.ActiveID()

	var mu sync.Mutex
	var got []domain.Event
	unsubscribe := s.Subscribe(func(e domain.Event) {
		// Observers run outside the lock and may read the store.
		_ = s.Len()
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	_, err := s.AppendMessage(id, userMsg("hello"))
	require.NoError(t, err)
	require.True(t, s.BeginSend(id))
	s.EndSend(id, domain.SendFailed)
	require.True(t, s.DeleteSession(id))

	unsubscribe()
	s.CreateSession()

	mu.Lock()
	defer mu.Unlock()
	var types []domain.EventType
	for _, e := range got {
		types = append(types, e.Type)
	}
	assert.Equal(t, []domain.EventType{
		domain.EventMessageAppended,
		domain.EventTitleChanged,
		domain.EventSendStarted,
		domain.EventSendSettled,
		domain.EventSessionDeleted,
		domain.EventSessionCreated,
		domain.EventActiveChanged,
	}, types)

	require.NotNil(t, got[0].Message)
	assert.Equal(t, "hello", got[0].Message.Content)
	assert.Equal(t, "hello", got[1].Title)
	assert.Equal(t, domain.SendFailed, got[3].Outcome)
}

func TestSwitchToCurrentEmitsNothing(t *testing.T) {
	s := newTestStore()
	var count atomic.Int32
	s.Subscribe(func(domain.Event) { count.Add(1) })

	assert.True(t, s.SwitchActive(s.ActiveID()))
	assert.Zero(t, count.Load())
}

func TestConcurrentAppendsKeepEveryMessage(t *testing.T) {
	s := NewStore()
	id := s.ActiveID()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AppendMessage(id, userMsg(fmt.Sprintf("m%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs := s.Messages(id)
	assert.Len(t, msgs, 51)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp))
	}
}

func TestTitleFromContent(t *testing.T) {
	assert.Equal(t, "Explain FastPay consensus", TitleFromContent("Explain FastPay consensus", 30))
	assert.Equal(t, strings.Repeat("a", 30), TitleFromContent(strings.Repeat("a", 30), 30))
	assert.Equal(t, strings.Repeat("a", 30)+"...", TitleFromContent(strings.Repeat("a", 31), 30))
}

func TestDefaultWelcomeIsLineraGreeting(t *testing.T) {
	s := NewStore()

	msgs := s.Active().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, DefaultWelcome, msgs[0].Content)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "**Hello! I’m your Linera Ecosystem Assistant.**"))
}
