package op

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/travisjeffery/writegood/internal/doc"
)

// TextRange is a span [Start, End) of rune offsets inside the Text at Path.
type TextRange struct {
	Path  doc.Path
	Start int
	End   int
}

func (r TextRange) String() string {
	return fmt.Sprintf("%s[%d,%d)", r.Path, r.Start, r.End)
}

// State is what a batch transforms: the tree, an optional selection and the
// text inserted so far.
type State struct {
	Doc *doc.Document

	// Selection is nil when there is no selection to carry.
	Selection *doc.Selection

	// Inserted lists every text range added by the operations applied so far,
	// in coordinates of Doc.
	Inserted []TextRange
}

// Apply applies ops in order and returns the resulting tree. root is never
// modified. On error the returned tree is nil and the error is an
// *InvalidPathError naming the failing operation.
func Apply(root *doc.Document, ops ...Operation) (*doc.Document, error) {
	st, err := Transact(State{Doc: root}, ops)
	if err != nil {
		return nil, err
	}
	return st.Doc, nil
}

// Transact applies ops to st.Doc and maps the selection and inserted ranges
// through every step. A set_selection operation replaces the selection.
// Points whose node disappears fall back to the nearest surviving text; if
// there is none the selection is dropped (nil) and the caller decides.
func Transact(st State, ops []Operation) (State, error) {
	if st.Doc == nil {
		return State{}, &InvalidPathError{Reason: "nil document"}
	}
	cur := State{Doc: st.Doc, Inserted: slices.Clone(st.Inserted)}
	if st.Selection != nil {
		sel := *st.Selection
		cur.Selection = &sel
	}

	for i, o := range ops {
		next, err := step(cur, o)
		if err != nil {
			if pe, ok := err.(*InvalidPathError); ok {
				pe.Index = i
				pe.Op = o.Type
			}
			return State{}, err
		}
		cur = next
	}
	return cur, nil
}

// effect is what one applied operation tells the transforms.
type effect struct {
	op       Operation
	before   *doc.Document
	after    *doc.Document
	diffs    []diffmatchpatch.Diff // set_text
	inserted []TextRange
	into     doc.Path // merge_nodes: target path after the merged node is removed
	intoLen  int      // merge_nodes: rune length (text) or child count of the target before merge
	dest     doc.Path // move_node: final path of the moved node
}

func step(st State, o Operation) (State, error) {
	if o.Type == TypeSetSelection {
		for _, p := range []doc.Point{o.Selection.Anchor, o.Selection.Focus} {
			if !doc.Resolves(st.Doc, p) {
				return State{}, pathError(p.Path, "offset %d does not address a text", p.Offset)
			}
		}
		sel := doc.Selection{
			Anchor: doc.Point{Path: o.Selection.Anchor.Path.Clone(), Offset: o.Selection.Anchor.Offset},
			Focus:  doc.Point{Path: o.Selection.Focus.Path.Clone(), Offset: o.Selection.Focus.Offset},
		}
		st.Selection = &sel
		return st, nil
	}

	eff, err := applyOne(st.Doc, o)
	if err != nil {
		return State{}, err
	}

	next := State{Doc: eff.after}
	if st.Selection != nil {
		anchor, okA := transformPoint(st.Selection.Anchor, eff)
		focus, okF := transformPoint(st.Selection.Focus, eff)
		switch {
		case okA && okF:
			next.Selection = &doc.Selection{Anchor: anchor, Focus: focus}
		case okA:
			next.Selection = &doc.Selection{Anchor: anchor, Focus: anchor}
		case okF:
			next.Selection = &doc.Selection{Anchor: focus, Focus: focus}
		}
	}
	for _, r := range st.Inserted {
		next.Inserted = append(next.Inserted, transformRange(r, eff)...)
	}
	next.Inserted = append(next.Inserted, eff.inserted...)
	return next, nil
}

func applyOne(root *doc.Document, o Operation) (*effect, error) {
	eff := &effect{op: o, before: root}
	var (
		out doc.Node
		err error
	)
	switch o.Type {
	case TypeInsertNode:
		out, err = applyInsert(root, o.Path, o.Node)
		if err == nil {
			eff.inserted = textRangesUnder(o.Node, o.Path)
		}
	case TypeRemoveNode:
		out, err = applyRemove(root, o.Path)
	case TypeSetText:
		out, err = applySetText(root, o, eff)
	case TypeInsertText:
		out, err = replaceText(root, o.Path, func(t *doc.Text) (*doc.Text, error) {
			if o.Offset < 0 || o.Offset > t.Len() {
				return nil, pathError(o.Path, "offset %d outside text of length %d", o.Offset, t.Len())
			}
			return t.InsertAt(o.Offset, o.Text), nil
		})
		if err == nil && o.Text != "" {
			eff.inserted = []TextRange{{Path: o.Path.Clone(), Start: o.Offset, End: o.Offset + utf8.RuneCountInString(o.Text)}}
		}
	case TypeRemoveText:
		out, err = replaceText(root, o.Path, func(t *doc.Text) (*doc.Text, error) {
			if o.Offset < 0 || o.Length < 0 || o.Offset+o.Length > t.Len() {
				return nil, pathError(o.Path, "range [%d,%d) outside text of length %d", o.Offset, o.Offset+o.Length, t.Len())
			}
			return t.DeleteRange(o.Offset, o.Offset+o.Length), nil
		})
	case TypeSetProperties:
		out, err = applySetProperties(root, o)
	case TypeMergeNodes:
		out, err = applyMerge(root, o, eff)
	case TypeSplitNode:
		out, err = applySplit(root, o)
	case TypeMoveNode:
		out, err = applyMove(root, o, eff)
	default:
		return nil, pathError(o.Path, "unknown operation type %q", o.Type)
	}
	if err != nil {
		return nil, err
	}
	eff.after = out.(*doc.Document)
	return eff, nil
}

// replaceAt rebuilds the spine from n down to path, replacing the node at
// path with fn's result. Untouched subtrees are shared.
func replaceAt(n doc.Node, full doc.Path, depth int, fn func(doc.Node) (doc.Node, error)) (doc.Node, error) {
	if depth == len(full) {
		return fn(n)
	}
	children := doc.Children(n)
	i := full[depth]
	if i < 0 || i >= len(children) {
		return nil, pathError(full, "no node at index %d of %s", i, full[:depth])
	}
	child, err := replaceAt(children[i], full, depth+1, fn)
	if err != nil {
		return nil, err
	}
	kids := slices.Clone(children)
	kids[i] = child
	out, _ := doc.WithChildren(n, kids)
	return out, nil
}

func replaceNode(root *doc.Document, path doc.Path, fn func(doc.Node) (doc.Node, error)) (doc.Node, error) {
	return replaceAt(root, path, 0, fn)
}

func replaceText(root *doc.Document, path doc.Path, fn func(*doc.Text) (*doc.Text, error)) (doc.Node, error) {
	return replaceNode(root, path, func(n doc.Node) (doc.Node, error) {
		t, ok := n.(*doc.Text)
		if !ok {
			return nil, pathError(path, "not a text node")
		}
		return fn(t)
	})
}

// replaceChildren rewrites the child list of the element at parent.
func replaceChildren(root *doc.Document, parent doc.Path, fn func(n doc.Node, children []doc.Node) ([]doc.Node, error)) (doc.Node, error) {
	return replaceNode(root, parent, func(n doc.Node) (doc.Node, error) {
		if !doc.IsElement(n) {
			return nil, pathError(parent, "not an element")
		}
		kids, err := fn(n, doc.Children(n))
		if err != nil {
			return nil, err
		}
		out, _ := doc.WithChildren(n, kids)
		return out, nil
	})
}

func applyInsert(root *doc.Document, path doc.Path, node doc.Node) (doc.Node, error) {
	if len(path) == 0 {
		return nil, pathError(path, "cannot insert at the root")
	}
	if node == nil {
		return nil, pathError(path, "nil node")
	}
	if problems := doc.CheckNode(node); len(problems) > 0 {
		return nil, pathError(path, "malformed node: %s", problems[0])
	}
	index := path.Last()
	return replaceChildren(root, path.Parent(), func(parent doc.Node, kids []doc.Node) ([]doc.Node, error) {
		if index < 0 || index > len(kids) {
			return nil, pathError(path, "index %d outside 0..%d", index, len(kids))
		}
		if !doc.CanContain(parent, node) {
			return nil, pathError(path, "%s cannot contain %s", parent.Type(), node.Type())
		}
		return slices.Insert(slices.Clone(kids), index, node), nil
	})
}

func applyRemove(root *doc.Document, path doc.Path) (doc.Node, error) {
	if len(path) == 0 {
		return nil, pathError(path, "cannot remove the root")
	}
	index := path.Last()
	return replaceChildren(root, path.Parent(), func(_ doc.Node, kids []doc.Node) ([]doc.Node, error) {
		if index < 0 || index >= len(kids) {
			return nil, pathError(path, "no node at index %d", index)
		}
		return slices.Delete(slices.Clone(kids), index, index+1), nil
	})
}

func applySetText(root *doc.Document, o Operation, eff *effect) (doc.Node, error) {
	return replaceText(root, o.Path, func(t *doc.Text) (*doc.Text, error) {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(t.Value, o.Text, false)
		eff.diffs = diffs

		out := t
		pos := 0
		for _, d := range diffs {
			n := utf8.RuneCountInString(d.Text)
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				pos += n
			case diffmatchpatch.DiffDelete:
				out = out.DeleteRange(pos, pos+n)
			case diffmatchpatch.DiffInsert:
				out = out.InsertAt(pos, d.Text)
				eff.inserted = append(eff.inserted, TextRange{Path: o.Path.Clone(), Start: pos, End: pos + n})
				pos += n
			}
		}
		return out, nil
	})
}

func applySetProperties(root *doc.Document, o Operation) (doc.Node, error) {
	if len(o.Path) == 0 {
		return nil, pathError(o.Path, "the document has no properties")
	}
	return replaceNode(root, o.Path, func(n doc.Node) (doc.Node, error) {
		switch v := n.(type) {
		case *doc.Block:
			kind := v.Kind
			if o.Kind != "" {
				kind = o.Kind
			}
			return &doc.Block{Kind: kind, Props: v.Props.Merge(o.Props), Children: v.Children}, nil
		case *doc.Inline:
			kind := v.Kind
			if o.Kind != "" {
				kind = o.Kind
			}
			return &doc.Inline{Kind: kind, Props: v.Props.Merge(o.Props), Children: v.Children}, nil
		default:
			return nil, pathError(o.Path, "%s has no properties", n.Type())
		}
	})
}

func applyMerge(root *doc.Document, o Operation, eff *effect) (doc.Node, error) {
	path, into := o.Path, o.To
	if len(path) == 0 || len(into) == 0 {
		return nil, pathError(path, "cannot merge the root")
	}
	if path.Contains(into) || into.Contains(path) {
		return nil, pathError(path, "cannot merge %s with its own ancestor or descendant %s", path, into)
	}
	src, ok := doc.Get(root, path)
	if !ok {
		return nil, pathError(path, "no node to merge")
	}
	dst, ok := doc.Get(root, into)
	if !ok {
		return nil, pathError(into, "no node to merge into")
	}
	if src.Type() != dst.Type() {
		return nil, pathError(path, "cannot merge %s into %s", src.Type(), dst.Type())
	}

	var merged doc.Node
	switch d := dst.(type) {
	case *doc.Text:
		eff.intoLen = d.Len()
		merged = d.Concat(src.(*doc.Text))
	default:
		kids := doc.Children(dst)
		eff.intoLen = len(kids)
		joined := append(slices.Clone(kids), doc.Children(src)...)
		merged, _ = doc.WithChildren(dst, joined)
	}

	out, err := replaceNode(root, into, func(doc.Node) (doc.Node, error) { return merged, nil })
	if err != nil {
		return nil, err
	}
	out, err = applyRemove(out.(*doc.Document), path)
	if err != nil {
		return nil, err
	}
	eff.into = shiftAfterRemove(into, path)
	return out, nil
}

func applySplit(root *doc.Document, o Operation) (doc.Node, error) {
	path, pos := o.Path, o.Offset
	if len(path) == 0 {
		return nil, pathError(path, "cannot split the root")
	}
	n, ok := doc.Get(root, path)
	if !ok {
		return nil, pathError(path, "no node to split")
	}

	var left, right doc.Node
	switch v := n.(type) {
	case *doc.Text:
		if pos < 0 || pos > v.Len() {
			return nil, pathError(path, "split offset %d outside text of length %d", pos, v.Len())
		}
		left, right = v.SplitAt(pos)
	case *doc.Block:
		if pos < 0 || pos > len(v.Children) {
			return nil, pathError(path, "split index %d outside 0..%d", pos, len(v.Children))
		}
		left = &doc.Block{Kind: v.Kind, Props: v.Props, Children: slices.Clone(v.Children[:pos])}
		right = &doc.Block{Kind: v.Kind, Props: v.Props.Merge(o.Props), Children: slices.Clone(v.Children[pos:])}
	case *doc.Inline:
		if pos < 0 || pos > len(v.Children) {
			return nil, pathError(path, "split index %d outside 0..%d", pos, len(v.Children))
		}
		left = &doc.Inline{Kind: v.Kind, Props: v.Props, Children: slices.Clone(v.Children[:pos])}
		right = &doc.Inline{Kind: v.Kind, Props: v.Props.Merge(o.Props), Children: slices.Clone(v.Children[pos:])}
	default:
		return nil, pathError(path, "cannot split %s", n.Type())
	}

	index := path.Last()
	return replaceChildren(root, path.Parent(), func(_ doc.Node, kids []doc.Node) ([]doc.Node, error) {
		out := slices.Clone(kids)
		out[index] = left
		return slices.Insert(out, index+1, right), nil
	})
}

func applyMove(root *doc.Document, o Operation, eff *effect) (doc.Node, error) {
	from, to := o.Path, o.To
	if len(from) == 0 || len(to) == 0 {
		return nil, pathError(from, "cannot move the root")
	}
	if from.IsAncestorOf(to) {
		return nil, pathError(to, "cannot move %s inside itself", from)
	}
	node, ok := doc.Get(root, from)
	if !ok {
		return nil, pathError(from, "no node to move")
	}
	dest := shiftAfterRemove(to, from)
	eff.dest = dest

	out, err := applyRemove(root, from)
	if err != nil {
		return nil, err
	}
	out, err = applyInsert(out.(*doc.Document), dest, node)
	if err != nil {
		if pe, ok := err.(*InvalidPathError); ok {
			pe.Path = to.Clone()
			pe.Reason = "destination: " + pe.Reason
		}
		return nil, err
	}
	return out, nil
}

// textRangesUnder lists every non-empty Text inside n, rooted at base.
func textRangesUnder(n doc.Node, base doc.Path) []TextRange {
	var out []TextRange
	doc.Walk(n, func(rel doc.Path, child doc.Node) bool {
		if t, ok := child.(*doc.Text); ok && t.Len() > 0 {
			path := append(base.Clone(), rel...)
			out = append(out, TextRange{Path: path, Start: 0, End: t.Len()})
		}
		return true
	})
	return out
}
