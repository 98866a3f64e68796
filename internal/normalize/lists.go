package normalize

import (
	"fmt"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/op"
)

// Lists keeps list structure consistent: every item sits directly inside a
// list, and every direct child of a list is an item.
//
// A stray item is promoted to the Promote kind in place. A non-item child of
// a list is wrapped in a new item.
type Lists struct {
	Kinds   ListKinds
	Promote doc.Kind
}

func (p *Lists) Name() string { return PluginLists }

func (p *Lists) Check(st op.State) (Violation, bool) {
	var found Violation
	_, _, ok := doc.Find(st.Doc, func(path doc.Path, n doc.Node) bool {
		if len(path) == 0 {
			return false
		}
		parent := parentOf(st.Doc, path)
		switch {
		case p.Kinds.isItemNode(n) && !p.Kinds.isListNode(parent):
			found = Violation{Path: path, Message: fmt.Sprintf("%s outside a list", p.Kinds.Item)}
			return true
		case p.Kinds.isListNode(parent) && !p.Kinds.isItemNode(n):
			found = Violation{Path: path, Message: fmt.Sprintf("%s child is not a %s", doc.KindOf(parent), p.Kinds.Item)}
			return true
		}
		return false
	})
	if !ok {
		return Violation{}, false
	}
	found.Plugin = PluginLists
	return found, true
}

func (p *Lists) Fix(st op.State, v Violation) ([]op.Operation, error) {
	n, ok := doc.Get(st.Doc, v.Path)
	if !ok {
		return nil, fmt.Errorf("no node at %s", v.Path)
	}
	parent := parentOf(st.Doc, v.Path)
	switch {
	case p.Kinds.isItemNode(n) && !p.Kinds.isListNode(parent):
		return []op.Operation{op.SetKind(v.Path, p.Promote)}, nil
	case p.Kinds.isListNode(parent):
		return []op.Operation{
			op.InsertNode(v.Path, doc.NewBlock(p.Kinds.Item)),
			op.MoveNode(v.Path.Next(), v.Path.Child(0)),
		}, nil
	default:
		return nil, fmt.Errorf("nothing to fix at %s", v.Path)
	}
}
