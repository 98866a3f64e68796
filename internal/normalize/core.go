package normalize

import (
	"fmt"
	"slices"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/op"
)

func fillEmptyBlocks(kinds ListKinds) Plugin {
	return NewRule(PluginFillEmptyBlocks,
		func(st op.State) (Violation, bool) {
			return findFirst(st.Doc,
				func(n doc.Node) string { return fmt.Sprintf("empty %s block", doc.KindOf(n)) },
				func(_ doc.Path, n doc.Node) bool {
					b, ok := n.(*doc.Block)
					return ok && len(b.Children) == 0 && !kinds.IsList(b.Kind)
				})
		},
		func(_ op.State, v Violation) ([]op.Operation, error) {
			return []op.Operation{op.InsertNode(v.Path.Child(0), doc.NewText(""))}, nil
		},
	)
}

func removeEmptyInlines() Plugin {
	return NewRule(PluginRemoveEmptyInlines,
		func(st op.State) (Violation, bool) {
			return findFirst(st.Doc,
				func(n doc.Node) string { return fmt.Sprintf("%s inline without text", doc.KindOf(n)) },
				func(_ doc.Path, n doc.Node) bool {
					in, ok := n.(*doc.Inline)
					if !ok {
						return false
					}
					for _, child := range in.Children {
						if t, ok := child.(*doc.Text); ok && t.Len() > 0 {
							return false
						}
					}
					return true
				})
		},
		func(_ op.State, v Violation) ([]op.Operation, error) {
			return []op.Operation{op.RemoveNode(v.Path)}, nil
		},
	)
}

func removeEmptyLists(kinds ListKinds) Plugin {
	return NewRule(PluginRemoveEmptyLists,
		func(st op.State) (Violation, bool) {
			return findFirst(st.Doc,
				func(n doc.Node) string { return fmt.Sprintf("%s without items", doc.KindOf(n)) },
				func(_ doc.Path, n doc.Node) bool {
					return kinds.isListNode(n) && len(doc.Children(n)) == 0
				})
		},
		func(_ op.State, v Violation) ([]op.Operation, error) {
			return []op.Operation{op.RemoveNode(v.Path)}, nil
		},
	)
}

// mergeable reports whether two sibling texts can become one without
// losing formatting boundaries.
func mergeable(a, b doc.Node) bool {
	ta, ok := a.(*doc.Text)
	if !ok {
		return false
	}
	tb, ok := b.(*doc.Text)
	if !ok {
		return false
	}
	if ta.Len() == 0 || tb.Len() == 0 {
		return true
	}
	return slices.Equal(ta.MarkTypes(), tb.MarkTypes())
}

func mergeAdjacentText() Plugin {
	return NewRule(PluginMergeAdjacentText,
		func(st op.State) (Violation, bool) {
			var found doc.Path
			doc.Walk(st.Doc, func(path doc.Path, n doc.Node) bool {
				if found != nil {
					return false
				}
				kids := doc.Children(n)
				for i := 1; i < len(kids); i++ {
					if mergeable(kids[i-1], kids[i]) {
						found = path.Child(i)
						return false
					}
				}
				return true
			})
			if found == nil {
				return Violation{}, false
			}
			return Violation{Path: found, Message: "adjacent texts with the same marks"}, true
		},
		func(_ op.State, v Violation) ([]op.Operation, error) {
			last := v.Path.Last()
			if last < 1 {
				return nil, fmt.Errorf("no previous sibling for %s", v.Path)
			}
			return []op.Operation{op.MergeNodes(v.Path, v.Path.Parent().Child(last-1))}, nil
		},
	)
}
