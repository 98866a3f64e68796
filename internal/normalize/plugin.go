package normalize

import (
	"fmt"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/op"
)

// Violation is one broken invariant found by a plugin.
type Violation struct {
	Plugin  string
	Path    doc.Path
	Message string

	// Start and End delimit a rune range inside the Text at Path, for
	// plugins that work on text.
	Start int
	End   int
}

func (v Violation) String() string {
	return fmt.Sprintf("%s at %s: %s", v.Plugin, v.Path, v.Message)
}

// Plugin is the capability every normalization rule implements.
//
// Check inspects the state and reports at most one violation. Fix returns
// the operations that correct it, addressed against st.Doc. A fix must not
// reintroduce the violation it fixes.
//
// st.Inserted holds the text ranges added by the edit being normalized,
// including text inserted by earlier fixes. Plugins that only care about new
// text read it; the others look at st.Doc alone.
type Plugin interface {
	Name() string
	Check(st op.State) (Violation, bool)
	Fix(st op.State, v Violation) ([]op.Operation, error)
}

// CheckFunc reports at most one violation.
type CheckFunc func(st op.State) (Violation, bool)

// FixFunc builds the corrective batch for a violation.
type FixFunc func(st op.State, v Violation) ([]op.Operation, error)

type rule struct {
	name  string
	check CheckFunc
	fix   FixFunc
}

// NewRule builds a plugin from a check/fix function pair.
func NewRule(name string, check CheckFunc, fix FixFunc) Plugin {
	return &rule{name: name, check: check, fix: fix}
}

func (r *rule) Name() string { return r.name }

func (r *rule) Check(st op.State) (Violation, bool) {
	v, ok := r.check(st)
	if ok {
		v.Plugin = r.name
	}
	return v, ok
}

func (r *rule) Fix(st op.State, v Violation) ([]op.Operation, error) {
	return r.fix(st, v)
}

// findFirst returns the first node in document order matching pred, as a
// violation carrying msg.
func findFirst(root *doc.Document, msg func(doc.Node) string, pred func(path doc.Path, n doc.Node) bool) (Violation, bool) {
	path, n, ok := doc.Find(root, pred)
	if !ok {
		return Violation{}, false
	}
	return Violation{Path: path, Message: msg(n)}, true
}

// parentOf returns the parent of the node at path.
func parentOf(root *doc.Document, path doc.Path) doc.Node {
	if len(path) == 0 {
		return nil
	}
	n, _ := doc.Get(root, path.Parent())
	return n
}
