package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/normalize"
	"github.com/travisjeffery/writegood/internal/op"
	"github.com/travisjeffery/writegood/internal/session"
)

func connect(t *testing.T) (*Bridge, *session.Session) {
	t.Helper()
	p, err := normalize.FromSettings(normalize.DefaultSettings())
	require.NoError(t, err)
	s := session.New(p, session.WithGenerator(session.NewFixedGenerator("v1", "v2", "v3", "v4", "v5")))
	b, err := Connect(context.Background(), s)
	require.NoError(t, err)
	return b, s
}

func insert(text string) []op.Operation {
	return []op.Operation{op.InsertText(doc.Path{0, 0}, 0, text)}
}

func TestPublish_OrderAndTiming(t *testing.T) {
	ctx := context.Background()
	b, s := connect(t)

	var got []string
	b.Subscribe(SubscriberFunc(func(_ context.Context, c session.Change) {
		got = append(got, "first:"+c.After.ID)
		assert.Equal(t, c.After, s.Current(), "the session already points at the published version")
	}))
	b.Subscribe(SubscriberFunc(func(_ context.Context, c session.Change) {
		got = append(got, "second:"+c.After.ID)
	}))

	v, err := b.Dispatch(ctx, insert("x"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first:v2", "second:v2"}, got, "delivered before Dispatch returns")

	_, err = s.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"first:v2", "second:v2", "first:v1", "second:v1"}, got)
	assert.Equal(t, "v2", v.ID)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	b, _ := connect(t)

	var calls int
	unsubscribe := b.Subscribe(SubscriberFunc(func(context.Context, session.Change) { calls++ }))
	assert.Equal(t, 1, b.Len())

	_, err := b.Dispatch(ctx, insert("a"))
	require.NoError(t, err)
	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, b.Len())

	_, err = b.Dispatch(ctx, insert("b"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestSubscribe_DuringDelivery(t *testing.T) {
	ctx := context.Background()
	b, _ := connect(t)

	var late int
	b.Subscribe(SubscriberFunc(func(context.Context, session.Change) {
		if b.Len() == 1 {
			b.Subscribe(SubscriberFunc(func(context.Context, session.Change) { late++ }))
		}
	}))

	_, err := b.Dispatch(ctx, insert("a"))
	require.NoError(t, err)
	assert.Equal(t, 0, late, "new subscribers start with the next change")

	_, err = b.Dispatch(ctx, insert("b"))
	require.NoError(t, err)
	assert.Equal(t, 1, late)
}

func TestSubscriber_CannotDispatch(t *testing.T) {
	ctx := context.Background()
	b, s := connect(t)

	var inner error
	b.Subscribe(SubscriberFunc(func(ctx context.Context, _ session.Change) {
		_, inner = b.Dispatch(ctx, insert("loop"))
	}))

	_, err := b.Dispatch(ctx, insert("a"))
	require.NoError(t, err)
	assert.True(t, errors.Is(inner, session.ErrReentrantDispatch))
	assert.Equal(t, 1, s.UndoDepth())
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	b, s := connect(t)
	_, err := b.Dispatch(ctx, insert("a"))
	require.NoError(t, err)

	var sources []session.Source
	b.Subscribe(SubscriberFunc(func(_ context.Context, c session.Change) { sources = append(sources, c.Source) }))

	_, err = b.Replace(ctx, doc.NewDocument(), nil)
	require.Error(t, err)
	assert.True(t, session.IsInvalidDocumentError(err), "replace does not normalize")
	assert.Empty(t, sources)

	loaded := doc.NewDocument(doc.NewParagraph("saved"))
	v, err := b.Replace(ctx, loaded, nil)
	require.NoError(t, err)
	assert.Same(t, loaded, v.Doc)
	assert.Zero(t, s.UndoDepth())
	assert.Equal(t, []session.Source{session.SourceReplace}, sources)

	v, err = b.Load(ctx, doc.NewDocument(), nil)
	require.NoError(t, err)
	assert.True(t, doc.Equal(doc.NewDocument(doc.NewBlock(doc.KindParagraph, doc.NewText(""))), v.Doc))
	assert.Equal(t, v, b.Current())
}

func TestDispatch_WaitsForDelivery(t *testing.T) {
	ctx := context.Background()
	b, s := connect(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var delivered []string
	b.Subscribe(SubscriberFunc(func(_ context.Context, c session.Change) {
		delivered = append(delivered, c.After.ID)
		if len(delivered) == 1 {
			close(entered)
			<-release
		}
	}))

	firstDone := make(chan error, 1)
	go func() {
		_, err := b.Dispatch(ctx, insert("a"))
		firstDone <- err
	}()
	<-entered

	secondDone := make(chan error, 1)
	go func() {
		_, err := b.Dispatch(ctx, insert("b"))
		secondDone <- err
	}()

	select {
	case err := <-secondDone:
		t.Fatalf("dispatch returned during another delivery: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)
	assert.Equal(t, []string{"v2", "v3"}, delivered)
	assert.Equal(t, 2, s.UndoDepth())
}
