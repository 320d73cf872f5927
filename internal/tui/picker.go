package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/joss/agentchat/internal/domain"
	chatstrings "github.com/joss/agentchat/internal/strings"
)

// inputMode represents the current input mode
type inputMode int

const (
	modeChat inputMode = iota
	modePicker
)

// sessionItem implements list.Item for the session picker
type sessionItem struct {
	id       string
	title    string
	count    int
	position int
}

func (i sessionItem) Title() string {
	return fmt.Sprintf("%d. %s", i.position, chatstrings.OneLine(i.title))
}

func (i sessionItem) Description() string { return fmt.Sprintf("%d messages", i.count) }
func (i sessionItem) FilterValue() string { return i.title }

// sessionItems is a slice of sessionItem that implements fuzzy.Source
type sessionItems []sessionItem

func (s sessionItems) String(i int) string { return s[i].title }
func (s sessionItems) Len() int            { return len(s) }

func toItems(sessions []domain.Session) sessionItems {
	items := make(sessionItems, len(sessions))
	for i, s := range sessions {
		items[i] = sessionItem{id: s.ID, title: s.Title, count: len(s.Messages), position: i + 1}
	}
	return items
}

// ResolveSession picks a session by its 1-based list position or, failing
// that, by fuzzy match on the title. Best match wins.
func ResolveSession(sessions []domain.Session, query string) (domain.Session, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Session{}, fmt.Errorf("which session? give a number or part of a title")
	}
	if n, err := strconv.Atoi(query); err == nil {
		if n < 1 || n > len(sessions) {
			return domain.Session{}, fmt.Errorf("no session number %d (have %d)", n, len(sessions))
		}
		return sessions[n-1], nil
	}
	matches := fuzzy.FindFrom(query, toItems(sessions))
	if len(matches) == 0 {
		return domain.Session{}, fmt.Errorf("no session matches %q", query)
	}
	return sessions[matches[0].Index], nil
}

// SessionPicker is the fuzzy session switcher overlay
type SessionPicker struct {
	list   list.Model
	items  sessionItems
	filter string
	width  int
	height int
}

// NewSessionPicker creates a picker over sessions
func NewSessionPicker(sessions []domain.Session, width, height int) *SessionPicker {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("205")).
		BorderForeground(lipgloss.Color("205"))

	l := list.New([]list.Item{}, delegate, width, height)
	l.Title = "Switch session"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	p := &SessionPicker{list: l, items: toItems(sessions), width: width, height: height}
	p.SetFilter("")
	return p
}

// SetFilter narrows the list with fuzzy matching
func (p *SessionPicker) SetFilter(filter string) {
	p.filter = filter

	var listItems []list.Item
	if filter == "" {
		for _, item := range p.items {
			listItems = append(listItems, item)
		}
	} else {
		for _, match := range fuzzy.FindFrom(filter, p.items) {
			listItems = append(listItems, p.items[match.Index])
		}
	}
	p.list.SetItems(listItems)
	p.list.ResetSelected()
}

// Filter returns the current filter text
func (p *SessionPicker) Filter() string {
	return p.filter
}

// Update handles navigation keys
func (p *SessionPicker) Update(msg tea.Msg) (*SessionPicker, tea.Cmd) {
	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

// View renders the picker
func (p *SessionPicker) View() string {
	return p.list.View()
}

// Selected returns the highlighted session id
func (p *SessionPicker) Selected() (string, bool) {
	item, ok := p.list.SelectedItem().(sessionItem)
	if !ok {
		return "", false
	}
	return item.id, true
}

// SetSize updates the picker dimensions
func (p *SessionPicker) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.list.SetSize(width, height)
}
