package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/travisjeffery/writegood/internal/session"
)

// DefaultWriteTimeout bounds a single persister write.
const DefaultWriteTimeout = 5 * time.Second

// Persister writes every published change of one document to a Store.
//
// Persister satisfies both session.Publisher and the bridge subscriber
// interface. Tree changes append an update log entry; selection-only changes
// update the stored selection. Write failures cannot be returned to the
// publisher, so they are logged and kept for Err.
type Persister struct {
	store   *Store
	docID   string
	timeout time.Duration

	mu  sync.Mutex
	err error
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithWriteTimeout sets the timeout applied to each write.
func WithWriteTimeout(d time.Duration) PersisterOption {
	return func(p *Persister) {
		p.timeout = d
	}
}

// NewPersister creates a persister for the document id.
// The document must already exist (see CreateDocument).
func NewPersister(s *Store, docID string, opts ...PersisterOption) *Persister {
	p := &Persister{
		store:   s,
		docID:   docID,
		timeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnChange persists c.
func (p *Persister) OnChange(ctx context.Context, c session.Change) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var err error
	if c.TreeChanged() {
		var entry Log
		entry, err = p.store.SaveVersion(ctx, p.docID, c.Source, c.After)
		if err == nil {
			slog.Debug("document version persisted",
				"document", p.docID,
				"version", c.After.ID,
				"seq", entry.Seq,
				"source", c.Source,
			)
		}
	} else {
		err = p.store.SaveSelection(ctx, p.docID, c.After)
	}

	if err != nil {
		slog.Error("failed to persist change",
			"document", p.docID,
			"version", c.After.ID,
			"source", c.Source,
			"error", err,
		)
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
	}
}

// Publish implements session.Publisher.
func (p *Persister) Publish(ctx context.Context, c session.Change) {
	p.OnChange(ctx, c)
}

// Err returns the most recent write failure, or nil.
func (p *Persister) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
