package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joss/agentchat/internal/audit"
	"github.com/joss/agentchat/internal/config"
	"github.com/joss/agentchat/internal/conversation"
	"github.com/joss/agentchat/internal/gateway"
	"github.com/joss/agentchat/internal/logging"
	"github.com/joss/agentchat/internal/session"
	"github.com/joss/agentchat/internal/tui"
)

// redirectLogs sends structured logs to path until shutdown. Empty keeps
// the current output (stderr by default).
func redirectLogs(path string) error {
	if path == "" {
		return nil
	}
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logging.SetOutput(f)

	shutdown.Register("log file", func(ctx context.Context) error {
		logging.SetOutput(os.Stderr)
		return f.Close()
	})
	return nil
}

// auditPath returns the audit database path: --audit-db, then
// AGENTCHAT_AUDIT_DB, then ~/.agentchat/audit.db.
func auditPath() string {
	if auditDB != "" {
		return auditDB
	}
	return config.GetPaths().AuditDB
}

// openAudit opens the audit store, or returns nil with a warning logged
// when it cannot be opened. Chat works without it.
func openAudit() *audit.Store {
	if noAudit {
		return nil
	}
	store, err := audit.Open(auditPath())
	if err != nil {
		logging.New("cli").Warn("audit_unavailable", map[string]interface{}{"path": auditPath()}, err)
		return nil
	}
	return store
}

// newApp wires the chat core from the environment. In-flight sends are
// waited for, and the audit store closed, at shutdown.
func newApp() *tui.App {
	env := config.Env()
	conn := config.NewConnection(config.ConnectionFromEnv())

	store := session.NewStore(
		session.WithWelcome(env.Welcome),
		session.WithTitleLimit(env.TitleLimit),
	)

	gw := gateway.New(gateway.WithHTTPClient(&http.Client{Timeout: env.HTTPTimeout}))

	var opts []conversation.Option
	auditStore := openAudit()
	if auditStore != nil {
		opts = append(opts, conversation.WithRecorder(auditStore))
		shutdown.Register("audit log", func(ctx context.Context) error {
			return auditStore.Close()
		})
	}
	orch := conversation.New(store, gw, conn, opts...)
	shutdown.RegisterWait("in-flight sends", orch.Wait)

	logging.New("cli").Info("app_started", map[string]interface{}{
		"user_id":    orch.UserID(),
		"configured": conn.Current().Complete(),
		"audit":      auditStore != nil,
	})

	return &tui.App{
		Store:        store,
		Orchestrator: orch,
		Conn:         conn,
		EnvFile:      config.GetPaths().EnvFile,
	}
}

// withAudit opens the audit store for a read-only command.
func withAudit(ctx context.Context, fn func(ctx context.Context, s *audit.Store) error) error {
	store, err := audit.Open(auditPath())
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer store.Close()
	return fn(ctx, store)
}
