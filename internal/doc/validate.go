package doc

import "fmt"

// Problem is a structural defect found by Check.
type Problem struct {
	Path    Path
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Path, p.Message)
}

// Check reports structural defects that no operation should ever produce:
// misplaced node variants, nil children, blank kinds and out-of-range marks.
// Invariants that normalization restores are checked by the normalize package.
func Check(root *Document) []Problem {
	if root == nil {
		return []Problem{{Path: Path{}, Message: "nil document"}}
	}
	return CheckNode(root)
}

// CheckNode is Check for an arbitrary subtree. Paths are relative to n.
func CheckNode(n Node) []Problem {
	var problems []Problem
	Walk(n, func(path Path, n Node) bool {
		for i, child := range Children(n) {
			if child == nil {
				problems = append(problems, Problem{Path: path.Child(i), Message: "nil node"})
				continue
			}
			if !CanContain(n, child) {
				problems = append(problems, Problem{
					Path:    path.Child(i),
					Message: fmt.Sprintf("%s cannot contain %s", n.Type(), child.Type()),
				})
			}
		}
		switch v := n.(type) {
		case *Block:
			if v.Kind == "" {
				problems = append(problems, Problem{Path: path, Message: "block without kind"})
			}
		case *Inline:
			if v.Kind == "" {
				problems = append(problems, Problem{Path: path, Message: "inline without kind"})
			}
		case *Text:
			length := v.Len()
			for _, m := range v.Marks {
				if m.Start < 0 || m.End > length || m.Start >= m.End {
					problems = append(problems, Problem{
						Path:    path,
						Message: fmt.Sprintf("mark %q range [%d,%d) outside text of length %d", m.Type, m.Start, m.End, length),
					})
				}
			}
		}
		return true
	})
	return problems
}
