package doc

import "strings"

// PlainText projects a tree to text: one line per block holding inline
// content, in document order.
func PlainText(root Node) string {
	var lines []string
	collectLines(root, &lines)
	return strings.Join(lines, "\n")
}

func collectLines(n Node, lines *[]string) {
	children := Children(n)
	hasBlocks := false
	for _, c := range children {
		if c.Type() == TypeBlock {
			hasBlocks = true
			break
		}
	}
	if _, ok := n.(*Block); ok && !hasBlocks {
		*lines = append(*lines, inlineText(n))
		return
	}
	for _, c := range children {
		if c.Type() == TypeBlock {
			collectLines(c, lines)
		}
	}
}

func inlineText(n Node) string {
	if t, ok := n.(*Text); ok {
		return t.Value
	}
	var sb strings.Builder
	for _, c := range Children(n) {
		sb.WriteString(inlineText(c))
	}
	return sb.String()
}
