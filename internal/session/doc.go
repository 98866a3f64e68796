// Package session holds the editor session: the current document version,
// its selection and the undo/redo history.
//
// Every mutating call (Dispatch, Undo, Redo, SetSelection, Replace, Load)
// runs to completion under one lock and notifies the Publisher before it
// returns. A failed call leaves the session exactly as it was. Calls from
// other goroutines wait for the lock, or give up when their context is done.
//
// Published versions are immutable. Current may be called from anywhere,
// including from inside a Publisher, without taking the session lock.
//
// The Publisher receives a context marked as a delivery from the session.
// A mutating call made with that context fails fast with
// ErrReentrantDispatch instead of corrupting history order. Subscribers
// that mutate with an unrelated context deadlock, so they must pass on the
// context they were given.
package session
