package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/travisjeffery/writegood/internal/doc"
)

// Version is one published (tree, selection) pair.
//
// Seq is assigned when the version is created and increases with every new
// version. Undo and redo bring back earlier versions with their original
// Seq and ID.
type Version struct {
	Seq       uint64
	ID        string
	Doc       *doc.Document
	Selection doc.Selection
}

// IDGenerator produces version identifiers.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 version IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined version IDs for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if all IDs have been consumed, to catch tests that create more
// versions than expected.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// InitialDocument is the document a new session starts with.
func InitialDocument() *doc.Document {
	return doc.NewDocument(doc.NewParagraph("A line of text in a paragraph."))
}

func cloneSelection(s doc.Selection) doc.Selection {
	return doc.Selection{
		Anchor: doc.Point{Path: s.Anchor.Path.Clone(), Offset: s.Anchor.Offset},
		Focus:  doc.Point{Path: s.Focus.Path.Clone(), Offset: s.Focus.Offset},
	}
}
