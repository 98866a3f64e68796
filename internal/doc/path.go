package doc

import (
	"slices"
	"strconv"
	"strings"
)

// Path represents the traversal steps from the Document root to a node.
// Example: [0, 1, 3] means root -> child[0] -> child[1] -> child[3].
// The empty path addresses the root itself.
type Path []int

// String renders the path as "[0 1 3]".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Clone returns a copy that does not share storage with p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return append(Path{}, p...)
}

// Parent returns the path of the parent. The root has no parent; Parent of
// the empty path returns the empty path.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p[:len(p)-1:len(p)-1]
}

// Last returns the final index, or -1 for the root.
func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Child returns the path of the i-th child of p.
func (p Path) Child(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// Sibling returns p with its last index replaced by i.
func (p Path) Sibling(i int) Path {
	out := p.Clone()
	if len(out) > 0 {
		out[len(out)-1] = i
	}
	return out
}

// Next returns the path of the following sibling.
func (p Path) Next() Path {
	return p.Sibling(p.Last() + 1)
}

// Equal reports whether p and q address the same position.
func (p Path) Equal(q Path) bool {
	return slices.Equal(p, q)
}

// Compare orders paths in document (pre-order) order. An ancestor sorts
// before its descendants.
func (p Path) Compare(q Path) int {
	for i := 0; i < len(p) && i < len(q); i++ {
		if p[i] != q[i] {
			if p[i] < q[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(p) < len(q):
		return -1
	case len(p) > len(q):
		return 1
	default:
		return 0
	}
}

// IsAncestorOf reports whether p is a strict prefix of q.
func (p Path) IsAncestorOf(q Path) bool {
	return len(p) < len(q) && slices.Equal(p, q[:len(p)])
}

// Contains reports whether q equals p or lies inside the subtree at p.
func (p Path) Contains(q Path) bool {
	return len(p) <= len(q) && slices.Equal(p, q[:len(p)])
}

// IsSiblingOf reports whether p and q share a parent and differ.
func (p Path) IsSiblingOf(q Path) bool {
	if len(p) == 0 || len(p) != len(q) {
		return false
	}
	return slices.Equal(p[:len(p)-1], q[:len(q)-1]) && p.Last() != q.Last()
}

// IsBefore reports whether p ends before q starts: p sorts earlier and is
// not an ancestor of q.
func (p Path) IsBefore(q Path) bool {
	return p.Compare(q) < 0 && !p.IsAncestorOf(q)
}
