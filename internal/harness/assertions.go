package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/normalize"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %q at %s", ev.Step, ev.Action, ev.Version, ev.Text, ev.Selection)
			if ev.Error != "" {
				fmt.Fprintf(&buf, " error=%s", ev.Error)
			}
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, pipeline *normalize.Pipeline) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, pipeline); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %s", i, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion, pipeline *normalize.Pipeline) error {
	switch a.Type {
	case AssertText:
		return assertText(result, a)
	case AssertDocument:
		return assertDocument(result, a)
	case AssertSelection:
		return assertSelection(result, a)
	case AssertHistory:
		return assertHistory(result, a)
	case AssertFired:
		return assertFired(result, a)
	case AssertValid:
		return assertValid(result, pipeline)
	case AssertLogs:
		return assertLogs(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertText(result *Result, a Assertion) error {
	got := doc.PlainText(result.Final.Doc)
	if got == a.Text {
		return nil
	}
	return &AssertionError{
		Type:     AssertText,
		Expected: fmt.Sprintf("%q", a.Text),
		Actual:   fmt.Sprintf("%q", got),
		Trace:    result.Trace,
	}
}

func assertDocument(result *Result, a Assertion) error {
	want, err := decodeDocument(a.Document)
	if err != nil {
		return fmt.Errorf("document: %w", err)
	}
	if doc.Equal(want, result.Final.Doc) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDocument,
		Expected: encodeForMessage(want),
		Actual:   encodeForMessage(result.Final.Doc),
		Trace:    result.Trace,
	}
}

func assertSelection(result *Result, a Assertion) error {
	want, err := doc.SelectionFromJSONValue(a.Selection)
	if err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	if want.Equal(result.Final.Selection) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSelection,
		Expected: formatSelection(want),
		Actual:   formatSelection(result.Final.Selection),
		Trace:    result.Trace,
	}
}

func assertHistory(result *Result, a Assertion) error {
	if result.UndoDepth == a.Undo && result.RedoDepth == a.Redo {
		return nil
	}
	return &AssertionError{
		Type:     AssertHistory,
		Expected: fmt.Sprintf("undo=%d redo=%d", a.Undo, a.Redo),
		Actual:   fmt.Sprintf("undo=%d redo=%d", result.UndoDepth, result.RedoDepth),
	}
}

func assertFired(result *Result, a Assertion) error {
	if a.Step < 0 || a.Step >= len(result.Trace) {
		return fmt.Errorf("step %d out of range", a.Step)
	}
	got := result.Trace[a.Step].Fired
	if slices.Equal(a.Plugins, got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFired,
		Expected: fmt.Sprintf("step %d fired %v", a.Step, a.Plugins),
		Actual:   fmt.Sprintf("step %d fired %v", a.Step, got),
		Trace:    result.Trace,
	}
}

func assertValid(result *Result, pipeline *normalize.Pipeline) error {
	violations := pipeline.Validate(result.Final.Doc)
	if len(violations) == 0 {
		return nil
	}
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.String()
	}
	return &AssertionError{
		Type:     AssertValid,
		Expected: "no violations",
		Actual:   strings.Join(msgs, "; "),
	}
}

func assertLogs(result *Result, a Assertion) error {
	if result.Logs == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertLogs,
		Expected: fmt.Sprintf("%d log entries", a.Count),
		Actual:   fmt.Sprintf("%d log entries", result.Logs),
	}
}

func encodeForMessage(d *doc.Document) string {
	data, err := doc.Encode(d)
	if err != nil {
		return fmt.Sprintf("<unencodable: %v>", err)
	}
	return string(data)
}
