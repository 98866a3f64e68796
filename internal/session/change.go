package session

import (
	"context"

	"github.com/travisjeffery/writegood/internal/op"
)

// Source says which call produced a change.
type Source string

const (
	SourceDispatch Source = "dispatch"
	SourceUndo     Source = "undo"
	SourceRedo     Source = "redo"
	SourceSelect   Source = "select"
	SourceReplace  Source = "replace"
)

// Change describes one accepted transition between versions.
type Change struct {
	Source Source
	Before Version
	After  Version

	// Ops is the caller's batch for dispatch, nil otherwise.
	Ops []op.Operation

	// Fired lists the normalization plugins that corrected the batch.
	Fired []string
}

// TreeChanged reports whether the document differs between Before and After.
func (c Change) TreeChanged() bool {
	return c.Before.Doc != c.After.Doc
}

// Publisher receives every accepted change, synchronously, before the
// mutating call returns. Mutating calls made with ctx fail with
// ErrReentrantDispatch.
type Publisher interface {
	Publish(ctx context.Context, c Change)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, c Change)

// Publish calls f(ctx, c).
func (f PublisherFunc) Publish(ctx context.Context, c Change) {
	f(ctx, c)
}
