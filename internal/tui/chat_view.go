package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joss/agentchat/internal/domain"
	chatstrings "github.com/joss/agentchat/internal/strings"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("238")).
			Width(sidebarWidth)

	activeItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	busyInputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// View renders the TUI
func (m ChatModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return fmt.Sprintf("\n  %s Starting...", m.spinner.View())
	}

	var b strings.Builder

	active := m.app.Store.Active()
	header := titleStyle.Render("agentchat") + "  " + mutedStyle.Render(chatstrings.OneLine(active.Title))
	b.WriteString(header + "\n\n")

	body := m.viewport.View()
	if m.showSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebarStyle.Height(m.viewport.Height).Render(m.renderSidebar()), " ", body)
	}
	b.WriteString(body + "\n")
	b.WriteString(m.renderStatus() + "\n")
	b.WriteString(m.renderInputArea())
	return b.String()
}

func (m ChatModel) showSidebar() bool {
	return m.transcriptWidth() != m.width
}

func (m ChatModel) renderSidebar() string {
	activeID := m.app.Store.ActiveID()
	var b strings.Builder
	b.WriteString(mutedStyle.Render("SESSIONS") + "\n")
	for i, s := range m.app.Store.Sessions() {
		label := fmt.Sprintf("%d. %s", i+1, chatstrings.OneLine(s.Title))
		label = chatstrings.Truncate(label, sidebarWidth-3)
		if m.app.Store.IsSending(s.ID) {
			label = chatstrings.Truncate(label, sidebarWidth-5) + " " + m.spinner.View()
		}
		if s.ID == activeID {
			b.WriteString(activeItemStyle.Render("▸ "+label) + "\n")
		} else {
			b.WriteString("  " + label + "\n")
		}
	}
	return b.String()
}

func (m ChatModel) renderInputArea() string {
	if m.inputMode == modePicker && m.picker != nil {
		pickerStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1).
			Width(m.width - 4)
		filter := "› " + m.picker.Filter()
		return pickerStyle.Render(filter+"\n"+m.picker.View()) + "\n" +
			mutedStyle.Render("  type to filter │ ↑↓: navigate │ Enter: switch │ Esc: cancel")
	}

	style := inputStyle
	if m.app.Store.IsSending(m.app.Store.ActiveID()) {
		style = busyInputStyle
	}
	return style.Width(m.width - 4).Render(m.input.View())
}

func (m ChatModel) renderStatus() string {
	var parts []string

	cfg := m.app.Conn.Current()
	if cfg.Complete() {
		parts = append(parts, assistantStyle.Render("●")+" "+chatstrings.Truncate(cfg.AgentID, 16))
	} else {
		parts = append(parts, systemStyle.Render("○")+" not configured")
	}

	if m.app.Store.IsSending(m.app.Store.ActiveID()) {
		parts = append(parts, m.spinner.View()+" waiting for reply")
	}
	parts = append(parts, fmt.Sprintf("%d sessions", m.app.Store.Len()))
	parts = append(parts, "Enter: send │ Tab: sessions │ Ctrl+N: new │ Esc: quit")

	return statusStyle.Width(m.width).Render(strings.Join(parts, " │ "))
}

// renderTranscript draws the active session's messages for the viewport.
func (m ChatModel) renderTranscript() string {
	width := m.viewport.Width - 2
	active := m.app.Store.Active()

	var b strings.Builder
	for _, msg := range active.Messages {
		b.WriteString(m.renderMessage(msg, width))
		b.WriteString("\n")
	}
	if m.app.Store.IsSending(active.ID) {
		b.WriteString(noticeStyle.Render("… waiting for the agent") + "\n")
	}
	if m.notice != "" {
		body := m.notice
		if width > 4 {
			body = chatstrings.WordWrap(body, width)
		}
		b.WriteString(noticeStyle.Render(body) + "\n")
	}
	return b.String()
}

func (m ChatModel) renderMessage(msg domain.Message, width int) string {
	stamp := mutedStyle.Render(msg.Timestamp.Local().Format("15:04"))

	switch msg.Role {
	case domain.RoleUser:
		return userStyle.Render("you") + " " + stamp + "\n" + wrapIndent(msg.Content, width, textStyle)
	case domain.RoleAssistant:
		head := assistantStyle.Render("agent") + " " + stamp + "\n"
		if m.renderer != nil {
			if out, err := m.renderer.Render(msg.Content); err == nil {
				return head + strings.TrimRight(out, "\n") + "\n"
			}
		}
		return head + wrapIndent(msg.Content, width, textStyle)
	default:
		return systemStyle.Render("notice") + " " + stamp + "\n" + wrapIndent(msg.Content, width, systemStyle)
	}
}

func wrapIndent(s string, width int, style lipgloss.Style) string {
	if width > 4 {
		s = chatstrings.WordWrap(s, width-2)
	}
	return style.Render(chatstrings.Indent(s, "  ")) + "\n"
}
