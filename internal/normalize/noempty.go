package normalize

import (
	"fmt"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/op"
)

// NoEmpty guarantees the document holds at least one block of Kind, at any
// depth. Individual empty blocks are left alone; fill-empty-blocks gives
// them an empty text instead.
type NoEmpty struct {
	Kind doc.Kind
}

func (p *NoEmpty) Name() string { return PluginNoEmpty }

func (p *NoEmpty) Check(st op.State) (Violation, bool) {
	count := doc.Count(st.Doc, func(n doc.Node) bool {
		b, ok := n.(*doc.Block)
		return ok && b.Kind == p.Kind
	})
	if count > 0 {
		return Violation{}, false
	}
	return Violation{
		Plugin:  PluginNoEmpty,
		Path:    doc.Path{len(st.Doc.Children)},
		Message: fmt.Sprintf("document has no %s block", p.Kind),
	}, true
}

// Fix appends one empty block of the target kind.
func (p *NoEmpty) Fix(st op.State, v Violation) ([]op.Operation, error) {
	return []op.Operation{
		op.InsertNode(doc.Path{len(st.Doc.Children)}, doc.NewBlock(p.Kind, doc.NewText(""))),
	}, nil
}
