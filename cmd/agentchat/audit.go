package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/agentchat/internal/audit"
	"github.com/joss/agentchat/internal/render"
)

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the send attempt log",
		Long: `Query the local log of send attempts.

Each message sent to the agent records its session, outcome,
HTTP status, duration and raw error. Conversations are not stored.`,
	}

	cmd.AddCommand(auditListCmd(), auditStatsCmd(), auditPruneCmd())
	return cmd
}

func auditListCmd() *cobra.Command {
	var sessionID string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent send attempts",
		Long: `Display recent send attempts, newest first.

Examples:
  agentchat audit list                     # Last 20 attempts
  agentchat audit list --session session_… # One session only
  agentchat audit list --limit 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAudit(cmd.Context(), func(ctx context.Context, s *audit.Store) error {
				attempts, err := s.Recent(ctx, sessionID, limit)
				if err != nil {
					return err
				}
				render.NewAudit(cmd.OutOrStdout()).Attempts(attempts)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Filter by session id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of attempts to show")
	return cmd
}

func auditStatsCmd() *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show send statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			return withAudit(cmd.Context(), func(ctx context.Context, s *audit.Store) error {
				st, err := s.Stats(ctx, from)
				if err != nil {
					return err
				}
				render.NewAudit(cmd.OutOrStdout()).Stats(st)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&since, "since", 0, "Only attempts newer than this (e.g. 24h)")
	return cmd
}

func auditPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old send attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return withAudit(cmd.Context(), func(ctx context.Context, s *audit.Store) error {
				n, err := s.Prune(ctx, time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d attempts\n", n)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Delete attempts older than this")
	return cmd
}
