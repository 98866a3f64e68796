package normalize

import (
	"fmt"

	"github.com/travisjeffery/writegood/internal/doc"
)

// quota counts fixes during one pipeline run and enforces the iteration
// budget. It catches plugins that keep producing new trees forever; the
// tree history catches plugins that go around in circles.
type quota struct {
	limit   int
	current int
}

func newQuota(limit int) *quota {
	return &quota{limit: limit}
}

// Check counts one more fix by plugin and fails once the budget is spent.
func (q *quota) Check(plugin string) error {
	q.current++
	if q.current > q.limit {
		return &DivergedError{Plugin: plugin, Iterations: q.current, Limit: q.limit}
	}
	return nil
}

// treeHistory remembers the content hash of every tree seen during one run.
type treeHistory struct {
	seen map[string]bool
}

func newTreeHistory() *treeHistory {
	return &treeHistory{seen: make(map[string]bool)}
}

// Record adds root to the history. It returns true if the tree was already
// there.
func (h *treeHistory) Record(root *doc.Document) (bool, error) {
	hash, err := doc.Hash(root)
	if err != nil {
		return false, fmt.Errorf("hash tree: %w", err)
	}
	if h.seen[hash] {
		return true, nil
	}
	h.seen[hash] = true
	return false, nil
}
