package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/agentchat/internal/config"
	"github.com/joss/agentchat/internal/render"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change connection settings",
		Long: `Show or change the agent connection settings.

Settings are saved to ~/.agentchat/.env. Variables set in the
environment take precedence over the file.`,
	}

	cmd.AddCommand(configShowCmd(), configSetCmd(), configPathCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show connection settings (API key masked)",
		Run: func(cmd *cobra.Command, args []string) {
			t := render.NewTranscript(cmd.OutOrStdout(), 0)
			t.Config(config.ConnectionFromEnv())
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value...",
		Short: "Save connection settings",
		Long: `Save one or more connection settings.

Keys: url (or endpoint), key, agent.

Examples:
  agentchat config set key=sk-...
  agentchat config set url=https://agent.example/chat agent=abc123`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ApplyOverrides(config.ConnectionFromEnv(), args)
			if err != nil {
				return err
			}
			path := config.GetPaths().EnvFile
			if err := config.SaveConnection(path, cfg); err != nil {
				return err
			}

			t := render.NewTranscript(cmd.OutOrStdout(), 0)
			t.Notice("Saved to %s", path)
			t.Line()
			t.Config(cfg)
			return nil
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show where settings, logs and the audit log live",
		Run: func(cmd *cobra.Command, args []string) {
			p := config.GetPaths()
			fmt.Fprintf(cmd.OutOrStdout(), "home:   %s\nenv:    %s\nlog:    %s\naudit:  %s\n",
				p.Home, p.EnvFile, p.LogFile, auditPath())
		},
	}
}
