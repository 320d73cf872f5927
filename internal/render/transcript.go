package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/joss/agentchat/internal/domain"
	chatstrings "github.com/joss/agentchat/internal/strings"
)

// Transcript renders chat state for the line-mode front end.
type Transcript struct {
	*Writer
	width int
}

// NewTranscript creates a transcript renderer wrapping text at width
// columns (0 disables wrapping).
func NewTranscript(w io.Writer, width int) *Transcript {
	return &Transcript{Writer: NewWriter(w), width: width}
}

// Speaker returns the colored label shown before a message.
func Speaker(role domain.Role) string {
	switch role {
	case domain.RoleUser:
		return color.New(color.FgCyan, color.Bold).Sprint("you")
	case domain.RoleAssistant:
		return color.New(color.FgGreen, color.Bold).Sprint("agent")
	default:
		return color.New(color.FgYellow, color.Bold).Sprint("notice")
	}
}

// Message renders one transcript entry.
func (t *Transcript) Message(m domain.Message) {
	t.Println("%s %s", Speaker(m.Role), color.HiBlackString(m.Timestamp.Local().Format("15:04")))
	body := m.Content
	if t.width > 4 {
		body = chatstrings.WordWrap(body, t.width-2)
	}
	if m.Role == domain.RoleSystem {
		body = color.YellowString("%s", body)
	}
	t.Println("%s", chatstrings.Indent(body, "  "))
	t.Line()
}

// Messages renders a whole transcript.
func (t *Transcript) Messages(msgs []domain.Message) {
	for _, m := range msgs {
		t.Message(m)
	}
}

// SessionHeader announces the session now in view.
func (t *Transcript) SessionHeader(s domain.Session) {
	t.Println("%s %s", color.CyanString("──"), color.New(color.Bold).Sprint(s.Title))
	t.Line()
}

// Sessions renders the numbered session list. Numbers start at 1 and
// follow the list order.
func (t *Transcript) Sessions(sessions []domain.Session, activeID string, sending func(id string) bool) {
	if len(sessions) == 0 {
		t.Empty("No sessions")
		return
	}
	t.Header("SESSIONS (%d)", len(sessions))
	for i, s := range sessions {
		marker := " "
		if s.ID == activeID {
			marker = color.GreenString("*")
		}
		state := ""
		if sending != nil && sending(s.ID) {
			state = " " + color.YellowString("[waiting for reply]")
		}
		t.Println("%s %2d. %s %s%s", marker, i+1,
			chatstrings.Truncate(chatstrings.OneLine(s.Title), 40),
			color.HiBlackString("(%d messages)", len(s.Messages)),
			state,
		)
	}
}

// Config renders connection settings with the key masked.
func (t *Transcript) Config(cfg domain.ConnectionConfig) {
	t.Header("CONNECTION")
	t.Item("Endpoint: %s", orUnset(cfg.EndpointURL))
	t.Item("API key:  %s", orUnset(cfg.MaskedKey()))
	t.Item("Agent ID: %s", orUnset(cfg.AgentID))
	if missing := cfg.Missing(); len(missing) > 0 {
		t.Line()
		t.Println("%s missing %s", color.YellowString("!"), strings.Join(missing, ", "))
	}
}

// Pending prints the waiting indicator.
func (t *Transcript) Pending() {
	t.Println("%s", color.HiBlackString("… waiting for the agent"))
}

// Notice prints a one-line informational message.
func (t *Transcript) Notice(format string, args ...any) {
	t.Println("%s %s", color.CyanString("›"), fmt.Sprintf(format, args...))
}

// Warn prints a one-line warning.
func (t *Transcript) Warn(format string, args ...any) {
	t.Println("%s %s", color.YellowString("!"), fmt.Sprintf(format, args...))
}

func orUnset(s string) string {
	if s == "" {
		return color.HiBlackString("(not set)")
	}
	return s
}
