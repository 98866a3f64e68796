package op

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/travisjeffery/writegood/internal/doc"
)

// sameLevel reports whether p passes through the parent of at, returning the
// depth of at's last index.
func sameLevel(p, at doc.Path) (int, bool) {
	d := len(at) - 1
	if d < 0 || len(p) <= d {
		return d, false
	}
	for i := 0; i < d; i++ {
		if p[i] != at[i] {
			return d, false
		}
	}
	return d, true
}

// shiftAfterRemove maps p across the removal of the node at removed. p must
// not be inside removed.
func shiftAfterRemove(p, removed doc.Path) doc.Path {
	d, ok := sameLevel(p, removed)
	if !ok || p[d] <= removed[d] {
		return p.Clone()
	}
	out := p.Clone()
	out[d]--
	return out
}

// shiftAfterInsert maps p across an insertion at position at.
func shiftAfterInsert(p, at doc.Path) doc.Path {
	d, ok := sameLevel(p, at)
	if !ok || p[d] < at[d] {
		return p.Clone()
	}
	out := p.Clone()
	out[d]++
	return out
}

// rebase moves p from under from to under to. The first index below from is
// offset by shift: a split child keeps its place minus the split offset, and
// a merged child lands after the target's existing children.
func rebase(p, from, to doc.Path, shift int) doc.Path {
	out := to.Clone()
	rel := p[len(from):]
	if len(rel) > 0 {
		out = append(out, rel[0]+shift)
		out = append(out, rel[1:]...)
	}
	return out
}

// TransformPath maps the path of an existing node across o, which was
// applied to before. ok is false when o removed the node.
func TransformPath(p doc.Path, o Operation, before *doc.Document) (doc.Path, bool) {
	eff, err := applyOne(before, o)
	if err != nil {
		return p.Clone(), true
	}
	return transformPath(p, eff)
}

// transformPath applies the path rules for one operation:
//
//	insert_node  siblings at or after the position shift right
//	remove_node  the node and its descendants are gone; later siblings shift left
//	merge_nodes  the merged node's children move into the previous sibling
//	split_node   children at or past the offset move to the new next sibling
//	move_node    the subtree follows to dest; everything else sees a remove
//	             then an insert
//
// Text and selection operations never change paths.
func transformPath(p doc.Path, eff *effect) (doc.Path, bool) {
	o := eff.op
	switch o.Type {
	case TypeInsertNode:
		return shiftAfterInsert(p, o.Path), true
	case TypeRemoveNode:
		if o.Path.Contains(p) {
			return nil, false
		}
		return shiftAfterRemove(p, o.Path), true
	case TypeMergeNodes:
		if o.Path.Contains(p) {
			return rebase(p, o.Path, eff.into, eff.intoLen), true
		}
		return shiftAfterRemove(p, o.Path), true
	case TypeSplitNode:
		// For a block split the offset is a child index.
		if o.Path.IsAncestorOf(p) && p[len(o.Path)] >= o.Offset {
			return rebase(p, o.Path, o.Path.Next(), -o.Offset), true
		}
		if d, ok := sameLevel(p, o.Path); ok && p[d] > o.Path[d] {
			out := p.Clone()
			out[d]++
			return out, true
		}
		return p.Clone(), true
	case TypeMoveNode:
		// eff.dest is the final path, already adjusted for the removal.
		if o.Path.Contains(p) {
			return rebase(p, o.Path, eff.dest, 0), true
		}
		return shiftAfterInsert(shiftAfterRemove(p, o.Path), eff.dest), true
	default:
		return p.Clone(), true
	}
}

// mapOffset maps a rune offset in the old value of a set_text to the new
// value. Offsets inside deleted text land where the deletion was.
func mapOffset(diffs []diffmatchpatch.Diff, off int) int {
	oldPos, newPos := 0, 0
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			if off <= oldPos+n {
				return newPos + off - oldPos
			}
			oldPos += n
			newPos += n
		case diffmatchpatch.DiffDelete:
			if off <= oldPos+n {
				return newPos
			}
			oldPos += n
		case diffmatchpatch.DiffInsert:
			newPos += n
		}
	}
	return newPos
}

// mapTextOffset handles the operations that move offsets inside one Text
// without changing its path. ok is false when o does not touch p.Path.
//
// startEdge decides ties at an insertion point. A caret (false) moves past
// inserted text; the start of a range (true) stays put so the range does not
// grow to cover text it never held.
func mapTextOffset(path doc.Path, off int, eff *effect, startEdge bool) (int, bool) {
	o := eff.op
	if !o.Path.Equal(path) {
		return off, false
	}
	switch o.Type {
	case TypeInsertText:
		n := utf8.RuneCountInString(o.Text)
		if off > o.Offset || (off == o.Offset && !startEdge) {
			return off + n, true
		}
		return off, true
	case TypeRemoveText:
		switch {
		case off >= o.Offset+o.Length:
			return off - o.Length, true
		case off > o.Offset:
			return o.Offset, true
		default:
			return off, true
		}
	case TypeSetText:
		return mapOffset(eff.diffs, off), true
	}
	return off, false
}

// transformPoint maps a selection point across one applied operation. ok is
// false only when the point's text was removed and the document has no text
// left to fall back to.
func transformPoint(pt doc.Point, eff *effect) (doc.Point, bool) {
	o := eff.op
	if off, ok := mapTextOffset(pt.Path, pt.Offset, eff, false); ok {
		return doc.Point{Path: pt.Path.Clone(), Offset: off}, true
	}

	switch o.Type {
	case TypeRemoveNode:
		if o.Path.Contains(pt.Path) {
			// End of the previous text, else start of the next.
			if p, ok := doc.PointBefore(eff.before, o.Path); ok {
				return p, true
			}
			if p, ok := doc.PointAfter(eff.before, o.Path); ok {
				return doc.Point{Path: shiftAfterRemove(p.Path, o.Path), Offset: p.Offset}, true
			}
			return doc.Point{}, false
		}
	case TypeMergeNodes:
		if o.Path.Equal(pt.Path) {
			if _, isText := mustGet(eff.before, o.Path).(*doc.Text); isText {
				return doc.Point{Path: eff.into.Clone(), Offset: pt.Offset + eff.intoLen}, true
			}
		}
	case TypeSplitNode:
		if o.Path.Equal(pt.Path) {
			if pt.Offset >= o.Offset {
				return doc.Point{Path: o.Path.Next(), Offset: pt.Offset - o.Offset}, true
			}
			return doc.Point{Path: pt.Path.Clone(), Offset: pt.Offset}, true
		}
	}

	path, ok := transformPath(pt.Path, eff)
	if !ok {
		return doc.Point{}, false
	}
	return doc.Point{Path: path, Offset: pt.Offset}, true
}

// transformRange maps an inserted range across one applied operation. A
// split through the range yields two pieces; a range whose text is removed,
// or that shrinks to nothing, yields none.
func transformRange(r TextRange, eff *effect) []TextRange {
	o := eff.op
	if o.Path.Equal(r.Path) {
		switch o.Type {
		case TypeInsertText, TypeRemoveText, TypeSetText:
			start, _ := mapTextOffset(r.Path, r.Start, eff, true)
			end, _ := mapTextOffset(r.Path, r.End, eff, false)
			if end <= start {
				return nil
			}
			return []TextRange{{Path: r.Path.Clone(), Start: start, End: end}}
		case TypeSplitNode:
			if _, isText := mustGet(eff.before, o.Path).(*doc.Text); !isText {
				break
			}
			next := o.Path.Next()
			switch {
			case r.End <= o.Offset:
				return []TextRange{{Path: r.Path.Clone(), Start: r.Start, End: r.End}}
			case r.Start >= o.Offset:
				return []TextRange{{Path: next, Start: r.Start - o.Offset, End: r.End - o.Offset}}
			default:
				return []TextRange{
					{Path: r.Path.Clone(), Start: r.Start, End: o.Offset},
					{Path: next, Start: 0, End: r.End - o.Offset},
				}
			}
		case TypeMergeNodes:
			// Merged text is appended, so offsets grow by the target's length.
			if _, isText := mustGet(eff.before, o.Path).(*doc.Text); isText {
				return []TextRange{{Path: eff.into.Clone(), Start: r.Start + eff.intoLen, End: r.End + eff.intoLen}}
			}
		}
	}

	path, ok := transformPath(r.Path, eff)
	if !ok {
		return nil
	}
	return []TextRange{{Path: path, Start: r.Start, End: r.End}}
}

func mustGet(root doc.Node, path doc.Path) doc.Node {
	n, _ := doc.Get(root, path)
	return n
}
