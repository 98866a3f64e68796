package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/normalize"
	"github.com/travisjeffery/writegood/internal/op"
)

type recorder struct {
	changes []Change
}

func (r *recorder) Publish(_ context.Context, c Change) {
	r.changes = append(r.changes, c)
}

type counterGenerator struct {
	n int
}

func (g *counterGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("v%d", g.n)
}

func newSession(t *testing.T, opts ...Option) (*Session, *recorder) {
	t.Helper()
	p, err := normalize.FromSettings(normalize.DefaultSettings())
	require.NoError(t, err)
	rec := &recorder{}
	opts = append([]Option{WithGenerator(&counterGenerator{}), WithPublisher(rec)}, opts...)
	return New(p, opts...), rec
}

func paragraphs(values ...string) *doc.Document {
	blocks := make([]doc.Node, len(values))
	for i, v := range values {
		blocks[i] = doc.NewParagraph(v)
	}
	return doc.NewDocument(blocks...)
}

func at(offset int, path ...int) doc.Point {
	return doc.Point{Path: doc.Path(path), Offset: offset}
}

func TestNew(t *testing.T) {
	s, rec := newSession(t)

	v := s.Current()
	assert.Equal(t, uint64(1), v.Seq)
	assert.Equal(t, "v1", v.ID)
	assert.True(t, doc.Equal(InitialDocument(), v.Doc))
	assert.Equal(t, doc.Collapsed(at(0, 0, 0)), v.Selection)
	assert.Zero(t, s.UndoDepth())
	assert.Empty(t, rec.changes, "construction does not publish")
}

func TestNew_WithSelection(t *testing.T) {
	sel := doc.Selection{Anchor: at(1, 1, 0), Focus: at(3, 1, 0)}
	s, _ := newSession(t, WithDocument(paragraphs("one", "two")), WithSelection(sel))
	assert.Equal(t, sel, s.Current().Selection)

	s, _ = newSession(t, WithDocument(paragraphs("one")), WithSelection(sel))
	assert.Equal(t, doc.Collapsed(at(0, 0, 0)), s.Current().Selection, "an unresolvable selection is ignored")
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	s, rec := newSession(t, WithDocument(paragraphs("world")))
	before := s.Current()

	v, err := s.Dispatch(ctx, []op.Operation{op.InsertText(doc.Path{0, 0}, 0, "hello ")})
	require.NoError(t, err)

	assert.Equal(t, uint64(2), v.Seq)
	assert.Equal(t, "v2", v.ID)
	assert.True(t, doc.Equal(paragraphs("hello world"), v.Doc))
	assert.Equal(t, doc.Collapsed(at(6, 0, 0)), v.Selection)
	assert.Equal(t, v, s.Current())
	assert.Equal(t, 1, s.UndoDepth())

	require.Len(t, rec.changes, 1)
	c := rec.changes[0]
	assert.Equal(t, SourceDispatch, c.Source)
	assert.Equal(t, before, c.Before)
	assert.Equal(t, v, c.After)
	assert.True(t, c.TreeChanged())
	assert.Len(t, c.Ops, 1)
}

func TestDispatch_EmptyBatch(t *testing.T) {
	ctx := context.Background()
	s, rec := newSession(t)
	before := s.Current()

	v, err := s.Dispatch(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, before, v)
	assert.Empty(t, rec.changes)
}

func TestDispatch_InvalidPathIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, rec := newSession(t, WithDocument(paragraphs("a")))
	before := s.Current()

	_, err := s.Dispatch(ctx, []op.Operation{
		op.InsertText(doc.Path{0, 0}, 1, "b"),
		op.RemoveNode(doc.Path{3}),
	})
	require.Error(t, err)
	assert.True(t, op.IsInvalidPathError(err))

	assert.Equal(t, before, s.Current())
	assert.True(t, doc.Equal(paragraphs("a"), s.Current().Doc))
	assert.Zero(t, s.UndoDepth())
	assert.Empty(t, rec.changes)
}

func TestDispatch_DivergedIsAtomic(t *testing.T) {
	ctx := context.Background()
	grow := normalize.NewRule("grow",
		func(st op.State) (normalize.Violation, bool) { return normalize.Violation{}, len(st.Doc.Children) > 1 },
		func(st op.State, _ normalize.Violation) ([]op.Operation, error) {
			return []op.Operation{op.InsertNode(doc.Path{len(st.Doc.Children)}, doc.NewParagraph("x"))}, nil
		},
	)
	rec := &recorder{}
	s := New(normalize.New([]normalize.Plugin{grow}, normalize.WithMaxIterations(3)),
		WithGenerator(&counterGenerator{}), WithPublisher(rec), WithDocument(paragraphs("a")))
	before := s.Current()

	_, err := s.Dispatch(ctx, []op.Operation{op.InsertNode(doc.Path{1}, doc.NewParagraph("b"))})
	require.Error(t, err)
	assert.True(t, normalize.IsDivergedError(err))
	assert.Equal(t, before, s.Current())
	assert.Empty(t, rec.changes)
}

func TestUndoRedo_Inverse(t *testing.T) {
	ctx := context.Background()
	s, rec := newSession(t, WithDocument(paragraphs("a", "b")))
	v0 := s.Current()

	v1, err := s.Dispatch(ctx, []op.Operation{
		op.SetSelection(doc.Collapsed(at(1, 1, 0))),
		op.RemoveNode(doc.Path{1}),
	})
	require.NoError(t, err)
	assert.Equal(t, doc.Collapsed(at(1, 0, 0)), v1.Selection, "selection leaves the removed block")

	undone, err := s.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, v0, undone)
	assert.True(t, doc.Equal(v0.Doc, s.Current().Doc))
	assert.True(t, v0.Selection.Equal(s.Current().Selection))
	assert.Equal(t, 0, s.UndoDepth())
	assert.Equal(t, 1, s.RedoDepth())

	redone, err := s.Redo(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, redone)
	assert.Equal(t, 1, s.UndoDepth())
	assert.Equal(t, 0, s.RedoDepth())

	require.Len(t, rec.changes, 3)
	assert.Equal(t, []Source{SourceDispatch, SourceUndo, SourceRedo},
		[]Source{rec.changes[0].Source, rec.changes[1].Source, rec.changes[2].Source})
}

func TestUndo_Empty(t *testing.T) {
	ctx := context.Background()
	s, rec := newSession(t)

	_, err := s.Undo(ctx)
	assert.True(t, errors.Is(err, ErrHistoryEmpty))
	_, err = s.Redo(ctx)
	assert.True(t, errors.Is(err, ErrRedoEmpty))
	assert.Empty(t, rec.changes)
}

func TestRedo_DiscardedByNewDispatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, WithDocument(paragraphs("a")))

	_, err := s.Dispatch(ctx, []op.Operation{op.InsertText(doc.Path{0, 0}, 1, "b")})
	require.NoError(t, err)
	_, err = s.Undo(ctx)
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, []op.Operation{op.InsertText(doc.Path{0, 0}, 1, "c")})
	require.NoError(t, err)

	_, err = s.Redo(ctx)
	assert.True(t, errors.Is(err, ErrRedoEmpty))
	assert.True(t, doc.Equal(paragraphs("ac"), s.Current().Doc))
}

func TestHistoryLimit(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, WithDocument(paragraphs("")), WithHistoryLimit(2))

	for _, c := range []string{"a", "b", "c"} {
		_, err := s.Dispatch(ctx, []op.Operation{op.InsertText(doc.Path{0, 0}, 0, c)})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, s.UndoDepth())

	_, err := s.Undo(ctx)
	require.NoError(t, err)
	v, err := s.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, doc.Equal(paragraphs("a"), v.Doc), "the oldest entry was dropped")

	_, err = s.Undo(ctx)
	assert.True(t, errors.Is(err, ErrHistoryEmpty))
}

func TestSetSelection(t *testing.T) {
	ctx := context.Background()
	s, rec := newSession(t, WithDocument(paragraphs("abc")))

	sel := doc.Selection{Anchor: at(0, 0, 0), Focus: at(3, 0, 0)}
	v, err := s.SetSelection(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, sel, v.Selection)
	assert.Zero(t, s.UndoDepth(), "selection changes are not undoable")

	require.Len(t, rec.changes, 1)
	assert.Equal(t, SourceSelect, rec.changes[0].Source)
	assert.False(t, rec.changes[0].TreeChanged())

	_, err = s.SetSelection(ctx, doc.Collapsed(at(4, 0, 0)))
	assert.True(t, op.IsInvalidPathError(err))
	_, err = s.SetSelection(ctx, doc.Collapsed(at(0, 0)))
	assert.True(t, op.IsInvalidPathError(err), "points must address text")
	assert.Equal(t, v, s.Current())
}

func TestDispatch_UnresolvableSelection(t *testing.T) {
	ctx := context.Background()
	s, rec := newSession(t, WithDocument(paragraphs("abc")))
	before := s.Current()

	for _, ops := range [][]op.Operation{
		{op.SetSelection(doc.Selection{Anchor: at(0, 7, 3), Focus: at(99, 7, 3)})},
		{
			op.InsertText(doc.Path{0, 0}, 3, "def"),
			op.SetSelection(doc.Collapsed(at(50, 0, 0))),
		},
	} {
		_, err := s.Dispatch(ctx, ops)
		require.Error(t, err)
		assert.True(t, op.IsInvalidPathError(err))
	}

	assert.Equal(t, before, s.Current())
	assert.Zero(t, s.UndoDepth())
	assert.Empty(t, rec.changes)
}

func TestPublish_ReentrantCallsFail(t *testing.T) {
	ctx := context.Background()
	p, err := normalize.FromSettings(normalize.DefaultSettings())
	require.NoError(t, err)

	var (
		s          *Session
		inner      []error
		seenInside Version
	)
	s = New(p, WithGenerator(&counterGenerator{}), WithDocument(paragraphs("a")),
		WithPublisher(PublisherFunc(func(ctx context.Context, c Change) {
			if c.Source != SourceDispatch {
				return
			}
			seenInside = s.Current()
			_, err := s.Dispatch(ctx, []op.Operation{op.InsertText(doc.Path{0, 0}, 0, "x")})
			inner = append(inner, err)
			_, err = s.Undo(ctx)
			inner = append(inner, err)
			_, err = s.Replace(ctx, paragraphs("b"), nil)
			inner = append(inner, err)
			inner = append(inner, s.SetPublisher(ctx, nil))
		})))

	v, err := s.Dispatch(ctx, []op.Operation{op.InsertText(doc.Path{0, 0}, 0, "y")})
	require.NoError(t, err)
	require.Len(t, inner, 4)
	for _, err := range inner {
		assert.True(t, errors.Is(err, ErrReentrantDispatch), "got %v", err)
	}
	assert.Equal(t, v, seenInside, "readers see the new version while publishing")
	assert.Equal(t, v, s.Current())
	assert.Equal(t, 1, s.UndoDepth())
}

func TestPublish_OtherCallersWait(t *testing.T) {
	ctx := context.Background()
	p, err := normalize.FromSettings(normalize.DefaultSettings())
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu      sync.Mutex
		sources []Source
	)
	s := New(p, WithGenerator(&counterGenerator{}), WithDocument(paragraphs("")),
		WithPublisher(PublisherFunc(func(_ context.Context, c Change) {
			mu.Lock()
			sources = append(sources, c.Source)
			first := len(sources) == 1
			mu.Unlock()
			if first {
				close(entered)
				<-release
			}
		})))

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Dispatch(ctx, []op.Operation{op.InsertText(doc.Path{0, 0}, 0, "a")})
		firstDone <- err
	}()
	<-entered

	secondDone := make(chan error, 1)
	go func() {
		_, err := s.Dispatch(ctx, []op.Operation{op.InsertText(doc.Path{0, 0}, 1, "b")})
		secondDone <- err
	}()

	select {
	case err := <-secondDone:
		t.Fatalf("dispatch returned while another call was publishing: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)

	assert.True(t, doc.Equal(paragraphs("ab"), s.Current().Doc))
	assert.Equal(t, 2, s.UndoDepth())
	assert.Equal(t, []Source{SourceDispatch, SourceDispatch}, sources)
}

func TestDispatch_ContextDoneWhileWaiting(t *testing.T) {
	p, err := normalize.FromSettings(normalize.DefaultSettings())
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	s := New(p, WithGenerator(&counterGenerator{}), WithDocument(paragraphs("")),
		WithPublisher(PublisherFunc(func(context.Context, Change) {
			close(entered)
			<-release
		})))

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Dispatch(context.Background(), []op.Operation{op.InsertText(doc.Path{0, 0}, 0, "a")})
		firstDone <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = s.Dispatch(ctx, []op.Operation{op.InsertText(doc.Path{0, 0}, 0, "b")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrReentrantDispatch))

	close(release)
	require.NoError(t, <-firstDone)
	assert.True(t, doc.Equal(paragraphs("a"), s.Current().Doc))
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	s, rec := newSession(t)
	_, err := s.Dispatch(ctx, []op.Operation{op.InsertText(doc.Path{0, 0}, 0, "x")})
	require.NoError(t, err)
	before := s.Current()

	_, err = s.Replace(ctx, doc.NewDocument(doc.NewBlock(doc.KindListItem, doc.NewText("x"))), nil)
	require.Error(t, err)
	assert.True(t, IsInvalidDocumentError(err))
	assert.Equal(t, before, s.Current())

	bad := doc.Collapsed(at(9, 0, 0))
	_, err = s.Replace(ctx, paragraphs("ok"), &bad)
	assert.True(t, IsInvalidDocumentError(err))

	sel := doc.Collapsed(at(1, 1, 0))
	v, err := s.Replace(ctx, paragraphs("one", "two"), &sel)
	require.NoError(t, err)
	assert.True(t, doc.Equal(paragraphs("one", "two"), v.Doc))
	assert.Equal(t, sel, v.Selection)
	assert.Zero(t, s.UndoDepth())
	assert.Zero(t, s.RedoDepth())

	last := rec.changes[len(rec.changes)-1]
	assert.Equal(t, SourceReplace, last.Source)

	_, err = s.Undo(ctx)
	assert.True(t, errors.Is(err, ErrHistoryEmpty))
}

func TestLoad_Normalizes(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)

	sel := doc.Collapsed(at(2, 1, 0))
	v, err := s.Load(ctx, doc.NewDocument(
		doc.NewParagraph("a"),
		doc.NewBlock(doc.KindListItem, doc.NewText("bc")),
	), &sel)
	require.NoError(t, err)
	assert.True(t, doc.Equal(paragraphs("a", "bc"), v.Doc))
	assert.Equal(t, sel, v.Selection)

	_, err = s.Load(ctx, &doc.Document{Children: []doc.Node{doc.NewText("bare")}}, nil)
	assert.True(t, IsInvalidDocumentError(err))
}

func TestDispatch_NoEmptyScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, WithDocument(paragraphs("hello")))

	v, err := s.Dispatch(ctx, []op.Operation{
		op.SetText(doc.Path{0, 0}, ""),
		op.RemoveNode(doc.Path{0}),
	})
	require.NoError(t, err)

	assert.True(t, doc.Equal(doc.NewDocument(doc.NewBlock(doc.KindParagraph, doc.NewText(""))), v.Doc))
	assert.Equal(t, doc.Collapsed(at(0, 0, 0)), v.Selection)
}
