package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joss/agentchat/internal/config"
	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/render"
	chatstrings "github.com/joss/agentchat/internal/strings"
)

// SlashCommand represents a slash command handler
type SlashCommand struct {
	Name        string
	Usage       string
	Description string
	Handler     func(app *App, args string) CommandResult
}

// CommandResult is what a command wants the front end to do.
type CommandResult struct {
	Output string
	Quit   bool
	// Redraw asks the front end to show the (possibly new) active session.
	Redraw bool
}

func output(format string, args ...any) CommandResult {
	return CommandResult{Output: fmt.Sprintf(format, args...)}
}

// builtinCommands returns all available slash commands
func builtinCommands() map[string]SlashCommand {
	return map[string]SlashCommand{
		"help": {
			Name:        "help",
			Description: "Show available commands",
			Handler:     cmdHelp,
		},
		"new": {
			Name:        "new",
			Description: "Start a new session",
			Handler:     cmdNew,
		},
		"switch": {
			Name:        "switch",
			Usage:       "<n|title>",
			Description: "Switch to a session by number or fuzzy title match",
			Handler:     cmdSwitch,
		},
		"delete": {
			Name:        "delete",
			Usage:       "[n|title]",
			Description: "Delete a session (the current one by default)",
			Handler:     cmdDelete,
		},
		"sessions": {
			Name:        "sessions",
			Description: "List sessions",
			Handler:     cmdSessions,
		},
		"config": {
			Name:        "config",
			Usage:       "[url=… key=… agent=…]",
			Description: "Show or replace the connection settings",
			Handler:     cmdConfig,
		},
		"quit": {
			Name:        "quit",
			Description: "Exit",
			Handler:     cmdQuit,
		},
	}
}

// commandAliases maps short forms to command names
var commandAliases = map[string]string{
	"n":    "new",
	"s":    "switch",
	"ls":   "sessions",
	"rm":   "delete",
	"q":    "quit",
	"exit": "quit",
}

// isSlashCommand checks if input starts with /
func isSlashCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// parseSlashCommand splits "/name args" into a lowercased name and the rest
func parseSlashCommand(input string) (name, args string) {
	input = strings.TrimPrefix(strings.TrimSpace(input), "/")
	name, args, _ = strings.Cut(input, " ")
	name = strings.ToLower(name)
	if alias, ok := commandAliases[name]; ok {
		name = alias
	}
	return name, strings.TrimSpace(args)
}

// executeSlashCommand parses and runs a slash command
func executeSlashCommand(app *App, input string) CommandResult {
	if !isSlashCommand(input) {
		return CommandResult{}
	}
	name, args := parseSlashCommand(input)
	if cmd, ok := builtinCommands()[name]; ok {
		return cmd.Handler(app, args)
	}
	return output("Unknown command: /%s. Type /help for available commands.", name)
}

// Command handlers

func cmdHelp(app *App, args string) CommandResult {
	cmds := builtinCommands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, name := range names {
		cmd := cmds[name]
		usage := "/" + cmd.Name
		if cmd.Usage != "" {
			usage += " " + cmd.Usage
		}
		fmt.Fprintf(&sb, "  %-32s %s\n", usage, cmd.Description)
	}
	sb.WriteString("\nAnything else is sent to the agent.")
	return CommandResult{Output: sb.String()}
}

func cmdNew(app *App, args string) CommandResult {
	app.Store.CreateSession()
	return CommandResult{Output: "Started a new session.", Redraw: true}
}

func cmdSwitch(app *App, args string) CommandResult {
	target, err := ResolveSession(app.Store.Sessions(), args)
	if err != nil {
		return output("%v", err)
	}
	app.Store.SwitchActive(target.ID)
	return CommandResult{Output: "Switched to " + quoteTitle(target), Redraw: true}
}

func cmdDelete(app *App, args string) CommandResult {
	target, ok := app.Store.Session(app.Store.ActiveID())
	if args != "" {
		var err error
		target, err = ResolveSession(app.Store.Sessions(), args)
		if err != nil {
			return output("%v", err)
		}
		ok = true
	}
	if !ok || !app.Store.DeleteSession(target.ID) {
		return output("Session is already gone.")
	}
	return CommandResult{Output: "Deleted " + quoteTitle(target), Redraw: true}
}

func cmdSessions(app *App, args string) CommandResult {
	var sb strings.Builder
	render.NewTranscript(&sb, 0).Sessions(app.Store.Sessions(), app.Store.ActiveID(), app.Store.IsSending)
	return CommandResult{Output: strings.TrimRight(sb.String(), "\n")}
}

func cmdConfig(app *App, args string) CommandResult {
	current := app.Conn.Current()
	if args == "" {
		return CommandResult{Output: describeConfig(current)}
	}

	next, err := config.ApplyOverrides(current, strings.Fields(args))
	if err != nil {
		return output("%v", err)
	}
	app.Conn.Replace(next)

	msg := "Connection settings updated."
	if app.EnvFile != "" {
		if err := config.SaveConnection(app.EnvFile, app.Conn.Current()); err != nil {
			msg += fmt.Sprintf(" Could not save them: %v", err)
		} else {
			msg += " Saved to " + app.EnvFile + "."
		}
	}
	return CommandResult{Output: msg + "\n" + describeConfig(app.Conn.Current())}
}

func cmdQuit(app *App, args string) CommandResult {
	return CommandResult{Quit: true}
}

func describeConfig(cfg domain.ConnectionConfig) string {
	var sb strings.Builder
	render.NewTranscript(&sb, 0).Config(cfg)
	return strings.TrimRight(sb.String(), "\n")
}

func quoteTitle(s domain.Session) string {
	return fmt.Sprintf("%q", chatstrings.Truncate(chatstrings.OneLine(s.Title), 40))
}
