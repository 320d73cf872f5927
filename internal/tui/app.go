// Package tui provides the chat front ends: the Bubble Tea terminal UI and a
// plain line-mode REPL. Both drive the same session store and orchestrator.
package tui

import (
	"github.com/joss/agentchat/internal/config"
	"github.com/joss/agentchat/internal/conversation"
	"github.com/joss/agentchat/internal/session"
)

// App bundles the chat core the front ends drive.
type App struct {
	Store        *session.Store
	Orchestrator *conversation.Orchestrator
	Conn         *config.Connection

	// EnvFile is where /config persists settings. Empty keeps changes in
	// memory only.
	EnvFile string
}

// rejectionNotice explains why a non-blank message was not sent to
// sessionID.
func rejectionNotice(app *App, sessionID string) string {
	if _, ok := app.Store.Session(sessionID); !ok {
		return "That session no longer exists. Your message was not sent."
	}
	if app.Store.IsSending(sessionID) {
		return "Still waiting for the reply in this session."
	}
	return "Message not sent."
}
