package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/session"
)

// createTestStore opens a store in a per-test temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// testVersion builds a version whose document has one paragraph per line.
func testVersion(seq uint64, id string, lines ...string) session.Version {
	blocks := make([]doc.Node, len(lines))
	for i, l := range lines {
		blocks[i] = doc.NewParagraph(l)
	}
	return session.Version{
		Seq:       seq,
		ID:        id,
		Doc:       doc.NewDocument(blocks...),
		Selection: doc.Collapsed(doc.Point{Path: doc.Path{0, 0}}),
	}
}
