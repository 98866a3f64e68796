package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/travisjeffery/writegood/internal/bridge"
	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/normalize"
	"github.com/travisjeffery/writegood/internal/op"
	"github.com/travisjeffery/writegood/internal/session"
	"github.com/travisjeffery/writegood/internal/store"
	"github.com/travisjeffery/writegood/internal/testutil"
)

// documentID is the id the scenario document is stored under.
const documentID = "scenario"

// Harness drives one scenario against a live session.
type Harness struct {
	session   *session.Session
	bridge    *bridge.Bridge
	store     *store.Store
	persister *store.Persister

	// last is the most recent change delivered through the bridge.
	last *session.Change
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// sequential version IDs so traces are reproducible.
//
// Execution flow:
// 1. Build the pipeline and session from the scenario config
// 2. Store the starting version and subscribe a persister
// 3. Execute steps, checking per-step expectations
// 4. Evaluate assertions against the final state
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	cfg, err := scenario.config()
	if err != nil {
		return nil, err
	}

	opts := []session.Option{session.WithGenerator(testutil.NewSequentialGenerator())}
	if scenario.Document != nil {
		root, err := decodeDocument(scenario.Document)
		if err != nil {
			return nil, fmt.Errorf("document: %w", err)
		}
		opts = append(opts, session.WithDocument(root))
		if scenario.Selection != nil {
			sel, err := doc.SelectionFromJSONValue(scenario.Selection)
			if err != nil {
				return nil, fmt.Errorf("selection: %w", err)
			}
			opts = append(opts, session.WithSelection(sel))
		}
	}

	sess, err := cfg.NewSession(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if _, err := st.CreateDocument(ctx, documentID, scenario.Name, sess.Current()); err != nil {
		return nil, fmt.Errorf("failed to store starting version: %w", err)
	}

	b, err := bridge.Connect(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("failed to connect bridge: %w", err)
	}

	h := &Harness{
		session:   sess,
		bridge:    b,
		store:     st,
		persister: store.NewPersister(st, documentID),
	}
	b.Subscribe(h.persister)
	b.Subscribe(bridge.SubscriberFunc(func(_ context.Context, c session.Change) {
		h.last = &c
	}))

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	if err := h.persister.Err(); err != nil {
		return nil, fmt.Errorf("failed to persist changes: %w", err)
	}

	result.Final = sess.Current()
	result.UndoDepth = sess.UndoDepth()
	result.RedoDepth = sess.RedoDepth()
	logs, err := st.Logs(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	result.Logs = len(logs)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, sess.Pipeline()) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep runs one step, records it in the trace and checks its
// expectation. Only setup failures (undecodable input) are returned as
// errors; session errors are outcomes.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	action := step.action()
	h.last = nil

	var stepErr error
	switch action {
	case ActionDispatch:
		ops, err := decodeOps(step.Dispatch)
		if err != nil {
			return err
		}
		_, stepErr = h.bridge.Dispatch(ctx, ops)
	case ActionUndo:
		_, stepErr = h.session.Undo(ctx)
	case ActionRedo:
		_, stepErr = h.session.Redo(ctx)
	case ActionSelect:
		sel, err := doc.SelectionFromJSONValue(step.Select)
		if err != nil {
			return err
		}
		_, stepErr = h.session.SetSelection(ctx, sel)
	case ActionReplace, ActionLoad:
		ds := step.Replace
		if action == ActionLoad {
			ds = step.Load
		}
		root, err := decodeDocument(ds.Document)
		if err != nil {
			return err
		}
		var sel *doc.Selection
		if ds.Selection != nil {
			s, err := doc.SelectionFromJSONValue(ds.Selection)
			if err != nil {
				return err
			}
			sel = &s
		}
		if action == ActionLoad {
			_, stepErr = h.bridge.Load(ctx, root, sel)
		} else {
			_, stepErr = h.bridge.Replace(ctx, root, sel)
		}
	default:
		return fmt.Errorf("no action")
	}

	errKind := classifyError(stepErr)
	var source session.Source
	var fired []string
	if h.last != nil {
		source = h.last.Source
		fired = h.last.Fired
	}
	current := h.session.Current()
	result.addStep(i, action, current, source, fired, errKind)

	slog.Debug("scenario step executed",
		"step", i,
		"action", action,
		"version", current.ID,
		"error", errKind,
	)

	if stepErr != nil && errKind == "" {
		return stepErr
	}
	checkExpect(i, step.Expect, result.Trace[len(result.Trace)-1], result)
	return nil
}

// checkExpect compares a step's trace event with its expectation.
func checkExpect(i int, expect *Expect, ev TraceEvent, result *Result) {
	want := Expect{}
	if expect != nil {
		want = *expect
	}
	if ev.Error != want.Error {
		result.AddError(fmt.Sprintf("step %d: expected error %q, got %q", i, want.Error, ev.Error))
	}
	if want.Fired != nil && !slices.Equal(want.Fired, ev.Fired) {
		result.AddError(fmt.Sprintf("step %d: expected fired %v, got %v", i, want.Fired, ev.Fired))
	}
	if want.Text != nil && *want.Text != ev.Text {
		result.AddError(fmt.Sprintf("step %d: expected text %q, got %q", i, *want.Text, ev.Text))
	}
}

// classifyError maps a session error to its error kind. Returns "" for nil
// and for errors outside the session's taxonomy.
func classifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrHistoryEmpty):
		return ErrHistoryEmpty
	case errors.Is(err, session.ErrRedoEmpty):
		return ErrRedoEmpty
	case errors.Is(err, session.ErrReentrantDispatch):
		return ErrReentrant
	case session.IsInvalidDocumentError(err):
		return ErrInvalidDocument
	case normalize.IsDivergedError(err):
		return ErrDiverged
	case normalize.IsFixError(err):
		return ErrFix
	case op.IsInvalidPathError(err):
		return ErrInvalidPath
	default:
		return ""
	}
}
