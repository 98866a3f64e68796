package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/normalize"
	"github.com/travisjeffery/writegood/internal/op"
)

// Session is the editor session state machine. It is Idle between calls and
// Applying while a call holds the lock.
type Session struct {
	// sem is the session lock, a one-slot semaphore so that waiting
	// callers can give up when their context is done. It is held until the
	// publisher returns.
	sem  chan struct{}
	view atomic.Pointer[snapshot]

	pipeline  *normalize.Pipeline
	gen       IDGenerator
	publisher Publisher

	current Version
	seq     uint64
	hist    history

	// initialSel is the starting selection requested by WithSelection.
	initialSel *doc.Selection
}

// snapshot is the lock-free view read by Current and the depth accessors.
type snapshot struct {
	version   Version
	undoDepth int
	redoDepth int
}

// Option configures a Session.
type Option func(*Session)

// WithHistoryLimit bounds the undo stack. A limit <= 0 keeps every entry.
//
// Default: 1000 (DefaultHistoryLimit)
func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		s.hist.limit = n
	}
}

// WithGenerator sets the version ID generator.
//
// Default: UUIDv7Generator
func WithGenerator(g IDGenerator) Option {
	return func(s *Session) {
		s.gen = g
	}
}

// WithPublisher sets the receiver of accepted changes.
func WithPublisher(p Publisher) Option {
	return func(s *Session) {
		s.publisher = p
	}
}

// WithDocument sets the starting document. It is not validated; use Load or
// Replace for untrusted content.
//
// Default: InitialDocument()
func WithDocument(root *doc.Document) Option {
	return func(s *Session) {
		s.current.Doc = root
	}
}

// WithSelection sets the starting selection. A selection that does not
// resolve in the starting document is ignored.
//
// Default: collapsed at the start of the document
func WithSelection(sel doc.Selection) Option {
	return func(s *Session) {
		s.initialSel = &sel
	}
}

// New creates a session normalizing with pipeline.
func New(pipeline *normalize.Pipeline, opts ...Option) *Session {
	s := &Session{
		sem:      make(chan struct{}, 1),
		pipeline: pipeline,
		gen:      UUIDv7Generator{},
		hist:     history{limit: DefaultHistoryLimit},
		current:  Version{Doc: InitialDocument()},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = s.newVersion(s.current.Doc, s.initialSel)
	s.initialSel = nil
	s.storeView()
	return s
}

// SetPublisher replaces the publisher.
func (s *Session) SetPublisher(ctx context.Context, p Publisher) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()
	s.publisher = p
	return nil
}

type deliveryKey struct{}

// lock acquires the session lock, waiting for other callers to finish
// publishing. A ctx handed to the publisher by this session fails with
// ErrReentrantDispatch instead of waiting on itself.
func (s *Session) lock(ctx context.Context) error {
	if owner, _ := ctx.Value(deliveryKey{}).(*Session); owner == s {
		return ErrReentrantDispatch
	}
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to acquire session: %w", ctx.Err())
	}
}

func (s *Session) unlock() {
	<-s.sem
}

// Current returns the current version without locking.
func (s *Session) Current() Version {
	return s.view.Load().version
}

// UndoDepth returns the number of versions Undo can go back.
func (s *Session) UndoDepth() int {
	return s.view.Load().undoDepth
}

// RedoDepth returns the number of versions Redo can go forward.
func (s *Session) RedoDepth() int {
	return s.view.Load().redoDepth
}

// Pipeline returns the normalization pipeline.
func (s *Session) Pipeline() *normalize.Pipeline {
	return s.pipeline
}

// Dispatch applies ops, normalizes the result, remaps the selection, records
// the prior version in history and publishes the new one.
//
// On error nothing changes: the batch is discarded and the current version
// is kept. Errors wrap *op.InvalidPathError, *normalize.DivergedError or
// *normalize.FixError.
//
// A batch that leaves the tree untouched (only set_selection operations)
// publishes a new version without creating a history entry.
//
// Dispatch waits while another call holds the session, including while it
// publishes. Called with the ctx of a delivery from this session, it fails
// with ErrReentrantDispatch.
func (s *Session) Dispatch(ctx context.Context, ops []op.Operation) (Version, error) {
	if err := s.lock(ctx); err != nil {
		return Version{}, err
	}
	defer s.unlock()

	before := s.current
	if len(ops) == 0 {
		return before, nil
	}

	sel := before.Selection
	st, err := op.Transact(op.State{Doc: before.Doc, Selection: &sel}, ops)
	if err != nil {
		slog.Debug("dispatch rejected", "version", before.Seq, "ops", len(ops), "error", err)
		return Version{}, fmt.Errorf("dispatch: %w", err)
	}
	res, err := s.pipeline.Run(st)
	if err != nil {
		slog.Debug("dispatch rejected", "version", before.Seq, "ops", len(ops), "error", err)
		return Version{}, fmt.Errorf("dispatch: normalize: %w", err)
	}

	after := s.newVersion(res.State.Doc, res.State.Selection)
	source := SourceSelect
	if after.Doc != before.Doc {
		source = SourceDispatch
		s.hist.record(before)
	}
	s.current = after

	slog.Debug("dispatch accepted",
		"version", after.Seq,
		"ops", len(ops),
		"fix_iterations", res.Iterations(),
		"undo_depth", len(s.hist.undo),
	)

	s.publish(ctx, Change{Source: source, Before: before, After: after, Ops: ops, Fired: res.Fired})
	return after, nil
}

// Undo restores the version before the most recent edit.
func (s *Session) Undo(ctx context.Context) (Version, error) {
	return s.travel(ctx, SourceUndo)
}

// Redo restores the version undone most recently. Any successful Dispatch
// discards the redo stack.
func (s *Session) Redo(ctx context.Context) (Version, error) {
	return s.travel(ctx, SourceRedo)
}

func (s *Session) travel(ctx context.Context, source Source) (Version, error) {
	if err := s.lock(ctx); err != nil {
		return Version{}, err
	}
	defer s.unlock()

	before := s.current
	var (
		target Version
		ok     bool
	)
	if source == SourceUndo {
		target, ok = s.hist.undoTo(before)
		if !ok {
			return Version{}, ErrHistoryEmpty
		}
	} else {
		target, ok = s.hist.redoTo(before)
		if !ok {
			return Version{}, ErrRedoEmpty
		}
	}
	s.current = target

	slog.Debug("history "+string(source),
		"from", before.Seq,
		"to", target.Seq,
		"undo_depth", len(s.hist.undo),
		"redo_depth", len(s.hist.redo),
	)

	s.publish(ctx, Change{Source: source, Before: before, After: target})
	return target, nil
}

// SetSelection moves the selection without creating a history entry. Both
// points must address text in the current tree.
func (s *Session) SetSelection(ctx context.Context, sel doc.Selection) (Version, error) {
	v, err := s.Dispatch(ctx, []op.Operation{op.SetSelection(sel)})
	if err != nil {
		return Version{}, fmt.Errorf("set selection: %w", err)
	}
	return v, nil
}

// Replace resets the session to root and sel and clears both history
// stacks. root must already be normalized and sel, when given, must resolve
// in it; otherwise Replace fails with *InvalidDocumentError and nothing
// changes. A nil sel collapses the selection at the document start.
func (s *Session) Replace(ctx context.Context, root *doc.Document, sel *doc.Selection) (Version, error) {
	if err := s.lock(ctx); err != nil {
		return Version{}, err
	}
	defer s.unlock()

	violations := s.pipeline.Validate(root)
	if sel != nil && root != nil && !doc.SelectionResolves(root, *sel) {
		violations = append(violations, normalize.Violation{
			Plugin:  "selection",
			Path:    sel.Focus.Path,
			Message: fmt.Sprintf("selection %s does not resolve", sel),
		})
	}
	if len(violations) > 0 {
		return Version{}, &InvalidDocumentError{Violations: violations}
	}
	return s.replaceLocked(ctx, root, sel), nil
}

// Load normalizes root once and then replaces the session with it. The
// selection is carried through normalization; a nil or unresolvable
// selection collapses at the document start.
func (s *Session) Load(ctx context.Context, root *doc.Document, sel *doc.Selection) (Version, error) {
	if err := s.lock(ctx); err != nil {
		return Version{}, err
	}
	defer s.unlock()

	if root == nil {
		return Version{}, &InvalidDocumentError{Violations: []normalize.Violation{{Plugin: "structure", Message: "nil document"}}}
	}
	if problems := doc.Check(root); len(problems) > 0 {
		violations := make([]normalize.Violation, len(problems))
		for i, p := range problems {
			violations[i] = normalize.Violation{Plugin: "structure", Path: p.Path, Message: p.Message}
		}
		return Version{}, &InvalidDocumentError{Violations: violations}
	}
	res, err := s.pipeline.Run(op.State{Doc: root, Selection: sel})
	if err != nil {
		return Version{}, fmt.Errorf("load: normalize: %w", err)
	}
	return s.replaceLocked(ctx, res.State.Doc, res.State.Selection), nil
}

func (s *Session) replaceLocked(ctx context.Context, root *doc.Document, sel *doc.Selection) Version {
	before := s.current
	after := s.newVersion(root, sel)
	s.hist.clear()
	s.current = after

	slog.Debug("session replaced", "version", after.Seq, "blocks", len(root.Children))

	s.publish(ctx, Change{Source: SourceReplace, Before: before, After: after})
	return after
}

// newVersion assigns the next Seq and ID. A selection that is missing or
// does not resolve collapses at the start of root.
func (s *Session) newVersion(root *doc.Document, sel *doc.Selection) Version {
	s.seq++
	v := Version{Seq: s.seq, ID: s.gen.Generate(), Doc: root}
	if sel != nil && doc.SelectionResolves(root, *sel) {
		v.Selection = cloneSelection(*sel)
	} else if p, ok := doc.StartPoint(root); ok {
		v.Selection = doc.Collapsed(p)
	}
	return v
}

// publish must be called with the session lock held. The publisher gets a
// ctx marked as this session's delivery, so calls made with it fail fast.
func (s *Session) publish(ctx context.Context, c Change) {
	s.storeView()
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(context.WithValue(ctx, deliveryKey{}, s), c)
}

func (s *Session) storeView() {
	s.view.Store(&snapshot{
		version:   s.current,
		undoDepth: len(s.hist.undo),
		redoDepth: len(s.hist.redo),
	})
}
