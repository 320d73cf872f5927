// Package main provides the agentchat CLI entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/agentchat/internal/config"
	"github.com/joss/agentchat/internal/logging"
	"github.com/joss/agentchat/internal/runtime"
	"github.com/joss/agentchat/internal/tui"
)

var (
	version = "0.1.0"

	lineMode bool
	logFile  string
	auditDB  string
	noAudit  bool

	shutdown = runtime.NewShutdownManager(runtime.DefaultShutdownTimeout)
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentchat",
		Short: "Chat with a remote conversational agent",
		Long: `agentchat: a terminal client for a remote conversational agent.

Usage modes:
  agentchat              Start the interactive terminal UI
  agentchat --line       Plain line mode (also used when stdin is not a terminal)
  agentchat ask <text>   Send one message and print the reply

Connection settings come from AGENTCHAT_* variables or ~/.agentchat/.env.
Use 'agentchat config show' to check them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file (default: stderr, or ~/.agentchat/agentchat.log in the TUI)")
	rootCmd.PersistentFlags().StringVar(&auditDB, "audit-db", "", "Audit database path (default ~/.agentchat/audit.db)")
	rootCmd.PersistentFlags().BoolVar(&noAudit, "no-audit", false, "Do not record send attempts")
	rootCmd.Flags().BoolVar(&lineMode, "line", false, "Use plain line mode instead of the terminal UI")

	rootCmd.AddGroup(
		&cobra.Group{ID: "chat", Title: "Chat:"},
		&cobra.Group{ID: "settings", Title: "Settings & diagnostics:"},
	)

	ask := askCmd()
	ask.GroupID = "chat"
	rootCmd.AddCommand(ask)

	cfg := configCmd()
	cfg.GroupID = "settings"
	rootCmd.AddCommand(cfg)

	aud := auditCmd()
	aud.GroupID = "settings"
	rootCmd.AddCommand(aud)

	rootCmd.AddCommand(versionCmd())

	stopSignals := shutdown.ListenForSignals()
	err := rootCmd.ExecuteContext(shutdown.Context())
	stopSignals()

	if cerr := shutdown.Shutdown(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Warning: cleanup: %v\n", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads ~/.agentchat/.env into the environment and applies the log
// level. Runs before every command.
func setup() error {
	if err := config.LoadEnvFile(config.GetPaths().EnvFile); err != nil {
		return err
	}
	// Env and paths may have been read before the file was loaded.
	config.ResetEnv()
	logging.SetLevel(logging.ParseLevel(config.Env().LogLevel))
	return redirectLogs(logFile)
}

// runChat starts the TUI when stdin and stdout are terminals, line mode
// otherwise.
func runChat(ctx context.Context) error {
	useTUI := !lineMode && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if useTUI && logFile == "" {
		// The TUI owns the terminal.
		if err := redirectLogs(config.GetPaths().LogFile); err != nil {
			return err
		}
	}

	app := newApp()

	if useTUI {
		return tui.Run(app)
	}
	err := tui.RunLine(ctx, app, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agentchat %s\n", version)
		},
	}
}
