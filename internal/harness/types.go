package harness

import (
	"strconv"
	"strings"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/session"
)

// TraceEvent records the outcome of one scenario step.
type TraceEvent struct {
	Step      int      `json:"step"`
	Action    string   `json:"action"`
	Source    string   `json:"source,omitempty"`
	Seq       uint64   `json:"seq"`
	Version   string   `json:"version"`
	Fired     []string `json:"fired,omitempty"`
	Error     string   `json:"error,omitempty"`
	Text      string   `json:"text"`
	Selection string   `json:"selection"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the session's version after the last step.
	Final session.Version `json:"-"`

	// UndoDepth and RedoDepth are the history depths after the last step.
	UndoDepth int `json:"undo_depth"`
	RedoDepth int `json:"redo_depth"`

	// Logs is the number of persisted log entries for the scenario document.
	Logs int `json:"logs"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addStep appends the trace event for a step that ended at v.
func (r *Result) addStep(step int, action string, v session.Version, source session.Source, fired []string, errKind string) {
	r.Trace = append(r.Trace, TraceEvent{
		Step:      step,
		Action:    action,
		Source:    string(source),
		Seq:       v.Seq,
		Version:   v.ID,
		Fired:     fired,
		Error:     errKind,
		Text:      doc.PlainText(v.Doc),
		Selection: formatSelection(v.Selection),
	})
}

// formatSelection renders a selection compactly: "0.0:4" when collapsed,
// "0.0:1-0.2:3" otherwise.
func formatSelection(s doc.Selection) string {
	if s.IsCollapsed() {
		return formatPoint(s.Anchor)
	}
	return formatPoint(s.Anchor) + "-" + formatPoint(s.Focus)
}

func formatPoint(p doc.Point) string {
	parts := make([]string, len(p.Path))
	for i, n := range p.Path {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".") + ":" + strconv.Itoa(p.Offset)
}
