package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/agentchat/internal/domain"
)

const sidebarWidth = 28

// storeEventMsg carries a session store event into the Bubble Tea loop.
type storeEventMsg domain.Event

// ChatModel is the Bubble Tea model for the interactive chat
type ChatModel struct {
	app *App

	ready    bool
	quitting bool
	width    int
	height   int

	viewport  viewport.Model
	input     textarea.Model
	spinner   spinner.Model
	picker    *SessionPicker
	inputMode inputMode
	renderer  *glamour.TermRenderer

	// notice is command output or a rejection shown under the transcript
	// until the next submit or session switch.
	notice string
}

// NewChatModel creates the chat model over app
func NewChatModel(app *App) ChatModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textarea.New()
	ti.Placeholder = "Type a message... (Enter to send, /help for commands)"
	ti.CharLimit = 4000
	ti.ShowLineNumbers = false
	ti.SetWidth(80)
	ti.SetHeight(3)
	ti.Focus()

	return ChatModel{
		app:     app,
		spinner: s,
		input:   ti,
	}
}

// Init starts the spinner
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textarea.Blink)
}

// Update handles messages
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.inputMode == modePicker {
		if _, ok := msg.(storeEventMsg); !ok {
			return m.updatePicker(msg)
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case storeEventMsg:
		return m.handleStoreEvent(domain.Event(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m ChatModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		return m.handleEnterKey()

	case "alt+enter", "ctrl+j":
		m.input.InsertString("\n")
		return m, nil

	case "ctrl+n":
		m.app.Store.CreateSession()
		return m, nil

	case "ctrl+s", "tab":
		m.inputMode = modePicker
		m.picker = NewSessionPicker(m.app.Store.Sessions(), m.pickerWidth(), 10)
		return m, nil

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ChatModel) handleEnterKey() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}

	if isSlashCommand(text) {
		m.input.Reset()
		result := executeSlashCommand(m.app, text)
		if result.Quit {
			m.quitting = true
			return m, tea.Quit
		}
		m.notice = result.Output
		m.refresh()
		return m, nil
	}

	activeID := m.app.Store.ActiveID()
	if !m.app.Orchestrator.Submit(activeID, text) {
		m.notice = rejectionNotice(m.app, activeID)
		m.refresh()
		return m, nil
	}
	m.input.Reset()
	m.notice = ""
	return m, nil
}

func (m ChatModel) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 2
	statusHeight := 1
	inputHeight := 5
	vpWidth := m.transcriptWidth()
	vpHeight := msg.Height - headerHeight - statusHeight - inputHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}

	// Word wrap is baked into the renderer, so it follows the width.
	m.renderer, _ = glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(vpWidth-4),
	)

	m.input.SetWidth(msg.Width - 4)
	if m.picker != nil {
		m.picker.SetSize(m.pickerWidth(), 10)
	}
	m.refresh()
	return m, nil
}

func (m ChatModel) handleStoreEvent(e domain.Event) (tea.Model, tea.Cmd) {
	activeID := m.app.Store.ActiveID()
	switch e.Type {
	case domain.EventActiveChanged:
		m.notice = ""
		m.refresh()
	case domain.EventMessageAppended, domain.EventSendSettled, domain.EventSendStarted:
		if e.SessionID == activeID {
			m.refresh()
		}
	}
	// The sidebar is drawn from the store on every View, so other events
	// need no bookkeeping here.
	return m, nil
}

func (m ChatModel) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if size, ok := msg.(tea.WindowSizeMsg); ok {
			return m.handleWindowSize(size)
		}
		return m, nil
	}

	switch key.String() {
	case "esc", "ctrl+c", "ctrl+s", "tab":
		m.inputMode = modeChat
		return m, nil

	case "enter":
		if id, ok := m.picker.Selected(); ok {
			m.app.Store.SwitchActive(id)
		}
		m.inputMode = modeChat
		m.refresh()
		return m, nil

	case "backspace":
		if f := m.picker.Filter(); f != "" {
			runes := []rune(f)
			m.picker.SetFilter(string(runes[:len(runes)-1]))
		}
		return m, nil

	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	if key.Type == tea.KeyRunes {
		m.picker.SetFilter(m.picker.Filter() + string(key.Runes))
	}
	return m, nil
}

// refresh redraws the transcript of the active session and keeps the
// newest message in view.
func (m *ChatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m ChatModel) transcriptWidth() int {
	w := m.width - sidebarWidth - 1
	if w < 20 {
		w = m.width
	}
	return w
}

func (m ChatModel) pickerWidth() int {
	if m.width > 8 {
		return m.width - 8
	}
	return 40
}
