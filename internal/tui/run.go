package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joss/agentchat/internal/domain"
)

// Run starts the interactive terminal UI and blocks until the user quits.
func Run(app *App) error {
	p, unsubscribe := newProgram(app, tea.WithAltScreen())
	defer unsubscribe()

	_, err := p.Run()
	return err
}

// newProgram builds the chat program and forwards store events into it.
func newProgram(app *App, opts ...tea.ProgramOption) (*tea.Program, func()) {
	p := tea.NewProgram(NewChatModel(app), opts...)

	unsubscribe := app.Store.Subscribe(func(e domain.Event) {
		// Most events are published from inside Update, and Send blocks
		// until the event loop reads it.
		go p.Send(storeEventMsg(e))
	})
	return p, unsubscribe
}
