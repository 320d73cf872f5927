package tui

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/logging"
	"github.com/joss/agentchat/internal/render"
)

// lineView serializes transcript output coming from the input loop and from
// send goroutines.
type lineView struct {
	mu sync.Mutex
	t  *render.Transcript
}

func (v *lineView) do(fn func(t *render.Transcript)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.t)
}

// RunLine runs the plain line-mode REPL: one line per message, slash
// commands as in the TUI. Replies print as they arrive for the active
// session. On EOF it waits for in-flight sends before returning.
func RunLine(ctx context.Context, app *App, in io.Reader, out io.Writer) error {
	view := &lineView{t: render.NewTranscript(out, 0)}

	unsubscribe := app.Store.Subscribe(func(e domain.Event) {
		if e.Type != domain.EventMessageAppended || e.Message == nil {
			return
		}
		if e.Message.Role == domain.RoleUser || e.SessionID != app.Store.ActiveID() {
			return
		}
		view.do(func(t *render.Transcript) { t.Message(*e.Message) })
	})
	defer unsubscribe()

	view.do(func(t *render.Transcript) {
		showActive(t, app)
		t.Notice("Type a message, or /help for commands.")
	})

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		defer logging.Recover("line")
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				app.Orchestrator.Wait()
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			if quit := handleLine(app, view, line); quit {
				return nil
			}
		}
	}
}

// handleLine processes one input line and reports whether to quit.
func handleLine(app *App, view *lineView, line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}

	if isSlashCommand(line) {
		result := executeSlashCommand(app, line)
		if result.Quit {
			app.Orchestrator.Wait()
			return true
		}
		view.do(func(t *render.Transcript) {
			if result.Redraw {
				t.Line()
				showActive(t, app)
			}
			if result.Output != "" {
				t.Println("%s", result.Output)
				t.Line()
			}
		})
		return false
	}

	// Held across Submit so the pending line always precedes the reply.
	// The user's own message event never takes the view lock.
	view.do(func(t *render.Transcript) {
		activeID := app.Store.ActiveID()
		if app.Orchestrator.Submit(activeID, line) {
			t.Pending()
		} else {
			t.Warn("%s", rejectionNotice(app, activeID))
		}
	})
	return false
}

func showActive(t *render.Transcript, app *App) {
	active := app.Store.Active()
	t.SessionHeader(active)
	t.Messages(active.Messages)
	if app.Store.IsSending(active.ID) {
		t.Pending()
	}
}
