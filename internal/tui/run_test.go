package tui

import (
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/agentchat/internal/domain"
)

func TestProgram_NewSessionAndSendKeepLoopRunning(t *testing.T) {
	app, sender := newTestApp(t)
	p, unsubscribe := newProgram(app,
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	defer unsubscribe()

	replied := make(chan struct{})
	var once sync.Once
	stop := app.Store.Subscribe(func(e domain.Event) {
		if e.Type == domain.EventMessageAppended && e.Message != nil && e.Message.Role == domain.RoleAssistant {
			once.Do(func() { close(replied) })
		}
	})
	defer stop()

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	p.Send(tea.WindowSizeMsg{Width: 100, Height: 30})
	p.Send(tea.KeyMsg{Type: tea.KeyCtrlN})
	p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello")})
	p.Send(tea.KeyMsg{Type: tea.KeyEnter})

	select {
	case <-replied:
	case <-time.After(3 * time.Second):
		t.Fatalf("no reply: gateway calls=%d, sessions=%d", sender.count(), app.Store.Len())
	}

	p.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("program did not quit")
	}

	assert.Equal(t, 2, app.Store.Len())
	assert.Equal(t, 1, sender.count())
	assert.False(t, app.Store.IsSending(app.Store.ActiveID()))

	msgs := app.Store.Active().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.Equal(t, "echo: hello", msgs[2].Content)
}

func TestProgram_SlashCommandsKeepLoopRunning(t *testing.T) {
	app, _ := newTestApp(t)
	p, unsubscribe := newProgram(app,
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	defer unsubscribe()

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	for _, cmd := range []string{"/new", "/switch 2", "/delete", "/quit"} {
		p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(cmd)})
		p.Send(tea.KeyMsg{Type: tea.KeyEnter})
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("program did not quit")
	}
	assert.Equal(t, 1, app.Store.Len())
}
