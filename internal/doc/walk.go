package doc

// Get resolves path against root. ok is false when any step is out of range
// or descends into a Text.
func Get(root Node, path Path) (Node, bool) {
	current := root
	for _, index := range path {
		children := Children(current)
		if index < 0 || index >= len(children) {
			return nil, false
		}
		current = children[index]
	}
	return current, current != nil
}

// GetText resolves path to a Text node.
func GetText(root Node, path Path) (*Text, bool) {
	n, ok := Get(root, path)
	if !ok {
		return nil, false
	}
	t, ok := n.(*Text)
	return t, ok
}

// Walk visits every node under root in pre-order, root first.
// Returning false from fn stops the walk. Paths passed to fn are fresh
// copies and may be retained.
func Walk(root Node, fn func(path Path, n Node) bool) {
	walk(root, Path{}, fn)
}

func walk(n Node, path Path, fn func(Path, Node) bool) bool {
	if !fn(path, n) {
		return false
	}
	for i, child := range Children(n) {
		if !walk(child, path.Child(i), fn) {
			return false
		}
	}
	return true
}

// Find returns the first node in pre-order satisfying pred.
func Find(root Node, pred func(path Path, n Node) bool) (Path, Node, bool) {
	var (
		foundPath Path
		found     Node
	)
	Walk(root, func(path Path, n Node) bool {
		if pred(path, n) {
			foundPath, found = path, n
			return false
		}
		return true
	})
	return foundPath, found, found != nil
}

// TextPaths returns the paths of all Text nodes in document order.
func TextPaths(root Node) []Path {
	var out []Path
	Walk(root, func(path Path, n Node) bool {
		if _, ok := n.(*Text); ok {
			out = append(out, path)
		}
		return true
	})
	return out
}

// Count returns how many nodes under root satisfy pred.
func Count(root Node, pred func(n Node) bool) int {
	count := 0
	Walk(root, func(_ Path, n Node) bool {
		if pred(n) {
			count++
		}
		return true
	})
	return count
}
