package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/agentchat/internal/domain"
)

type askOutput struct {
	SessionID string           `json:"session_id"`
	RequestID string           `json:"request_id"`
	Outcome   domain.SendState `json:"outcome"`
	Reply     string           `json:"reply"`
	Error     string           `json:"error,omitempty"`
}

func askCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message and print the reply",
		Long: `Send a single message in a fresh session and print the agent's reply.

The message is read from stdin when no argument is given.

Examples:
  agentchat ask "Explain FastPay consensus"
  echo "hello" | agentchat ask
  agentchat ask --json "status?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := askText(args, os.Stdin)
			if err != nil {
				return err
			}

			app := newApp()

			res, err := app.Orchestrator.Send(cmd.Context(), app.Store.ActiveID(), text)
			if err != nil {
				return err
			}

			if asJSON {
				out := askOutput{
					SessionID: res.SessionID,
					RequestID: res.RequestID,
					Outcome:   res.Outcome,
					Reply:     res.Reply.Content,
				}
				if res.Err != nil {
					out.Error = res.Err.Error()
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else if res.Outcome == domain.SendSuccess {
				fmt.Fprintln(cmd.OutOrStdout(), res.Reply.Content)
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), res.Reply.Content)
			}

			if res.Outcome != domain.SendSuccess {
				if res.Err == nil {
					return errors.New("send failed")
				}
				return fmt.Errorf("send failed: %w", res.Err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// askText joins the arguments, or reads stdin when there are none.
func askText(args []string, stdin *os.File) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if term.IsTerminal(int(stdin.Fd())) {
		return "", errors.New("no message given")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("no message given")
	}
	return text, nil
}
