package render

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/joss/agentchat/internal/audit"
	chatstrings "github.com/joss/agentchat/internal/strings"
)

// Audit renders audit-specific output.
type Audit struct {
	*Writer
}

// NewAudit creates an Audit renderer.
func NewAudit(w io.Writer) *Audit {
	return &Audit{Writer: NewWriter(w)}
}

// Attempts renders a list of send attempts, newest first.
func (a *Audit) Attempts(attempts []audit.Attempt) {
	if len(attempts) == 0 {
		a.Empty("No send attempts recorded")
		return
	}

	a.Header("SEND ATTEMPTS (%d)", len(attempts))

	for _, at := range attempts {
		code := ""
		if at.StatusCode != 0 {
			code = fmt.Sprintf(" http=%d", at.StatusCode)
		}
		a.Println("%s [%s] %s %s%s",
			StatusIcon(string(at.Status)),
			at.StartedAt.Local().Format("2006-01-02 15:04:05"),
			at.SessionID,
			FormatDuration(time.Duration(at.DurationMs)*time.Millisecond),
			code,
		)
		if at.Error != "" {
			a.Nested("%s", chatstrings.Truncate(chatstrings.OneLine(at.Error), 100))
		}
	}
}

// Stats renders attempt statistics.
func (a *Audit) Stats(st audit.Stats) {
	a.Header("SEND STATISTICS")

	if st.Count == 0 {
		a.Empty("No send attempts recorded")
		return
	}

	a.Item("Attempts:     %d", st.Count)
	a.Item("Error rate:   %.1f%%", st.ErrorRate*100)
	a.Item("Mean:         %.0fms", st.MeanMs)
	a.Item("p50 / p95:    %.0fms / %.0fms", st.P50Ms, st.P95Ms)
	a.Item("Max:          %.0fms", st.MaxMs)

	a.Section("by status")
	statuses := make([]string, 0, len(st.ByStatus))
	for s := range st.ByStatus {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		a.Item("%s %-13s %d", StatusIcon(s), s+":", st.ByStatus[audit.Status(s)])
	}
}
