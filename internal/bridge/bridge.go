// Package bridge connects an editor session to any number of subscribers.
//
// Every accepted change is delivered to all subscribers synchronously, in
// subscription order, before the session call that produced it returns.
// Inbound, the bridge forwards dispatches and whole-document replacements
// to the session.
package bridge

import (
	"context"
	"sync"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/op"
	"github.com/travisjeffery/writegood/internal/session"
)

// Subscriber receives published changes. It must treat the trees as
// read-only. ctx marks the delivery: mutating calls made with it fail with
// session.ErrReentrantDispatch. Other goroutines calling in during a
// delivery wait for it to finish.
type Subscriber interface {
	OnChange(ctx context.Context, c session.Change)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, c session.Change)

// OnChange calls f(ctx, c).
func (f SubscriberFunc) OnChange(ctx context.Context, c session.Change) {
	f(ctx, c)
}

type subscription struct {
	id  uint64
	sub Subscriber
}

// Bridge is the session's publisher and the inbound entry point for
// external collaborators.
type Bridge struct {
	session *session.Session

	mu     sync.Mutex
	subs   []subscription
	nextID uint64
}

// Connect creates a bridge and installs it as the session's publisher.
func Connect(ctx context.Context, s *session.Session) (*Bridge, error) {
	b := &Bridge{session: s}
	if err := s.SetPublisher(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Subscribe adds sub after all existing subscribers and returns a function
// that removes it. Subscribing from inside a delivery takes effect with the
// next change.
func (b *Bridge) Subscribe(sub Subscriber) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, sub: sub})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bridge) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribers.
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish delivers c to every subscriber in subscription order. It
// implements session.Publisher.
func (b *Bridge) Publish(ctx context.Context, c session.Change) {
	b.mu.Lock()
	subs := append([]subscription(nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		s.sub.OnChange(ctx, c)
	}
}

// Current returns the session's current version.
func (b *Bridge) Current() session.Version {
	return b.session.Current()
}

// Dispatch forwards a batch to the session.
func (b *Bridge) Dispatch(ctx context.Context, ops []op.Operation) (session.Version, error) {
	return b.session.Dispatch(ctx, ops)
}

// Replace resets the session to an already normalized tree, clearing
// history. See session.Session.Replace.
func (b *Bridge) Replace(ctx context.Context, root *doc.Document, sel *doc.Selection) (session.Version, error) {
	return b.session.Replace(ctx, root, sel)
}

// Load normalizes root once and then replaces the session with it.
func (b *Bridge) Load(ctx context.Context, root *doc.Document, sel *doc.Selection) (session.Version, error) {
	return b.session.Load(ctx, root, sel)
}
