package doc

import "fmt"

// Point addresses a rune offset inside a Text node.
type Point struct {
	Path   Path
	Offset int
}

func (p Point) String() string {
	return fmt.Sprintf("%s:%d", p.Path, p.Offset)
}

// Equal reports whether two points are identical.
func (p Point) Equal(o Point) bool {
	return p.Offset == o.Offset && p.Path.Equal(o.Path)
}

// Selection is an anchor/focus pair. Anchor is where the selection started,
// Focus where it ends; Focus may precede Anchor.
type Selection struct {
	Anchor Point
	Focus  Point
}

// Collapsed returns a selection with both ends at p.
func Collapsed(p Point) Selection {
	return Selection{Anchor: p, Focus: p}
}

// IsCollapsed reports whether anchor and focus coincide.
func (s Selection) IsCollapsed() bool {
	return s.Anchor.Equal(s.Focus)
}

// Equal reports whether two selections are identical.
func (s Selection) Equal(o Selection) bool {
	return s.Anchor.Equal(o.Anchor) && s.Focus.Equal(o.Focus)
}

func (s Selection) String() string {
	return fmt.Sprintf("{anchor %s, focus %s}", s.Anchor, s.Focus)
}

// Resolves reports whether p addresses a Text in root with an offset inside it.
func Resolves(root Node, p Point) bool {
	t, ok := GetText(root, p.Path)
	return ok && p.Offset >= 0 && p.Offset <= t.Len()
}

// SelectionResolves reports whether both ends of s resolve in root.
func SelectionResolves(root Node, s Selection) bool {
	return Resolves(root, s.Anchor) && Resolves(root, s.Focus)
}

// StartPoint returns offset 0 of the first Text in root.
func StartPoint(root Node) (Point, bool) {
	path, _, ok := Find(root, func(_ Path, n Node) bool {
		_, isText := n.(*Text)
		return isText
	})
	if !ok {
		return Point{}, false
	}
	return Point{Path: path}, true
}

// PointBefore returns the end of the last Text that ends before the subtree
// at path.
func PointBefore(root Node, path Path) (Point, bool) {
	var found Point
	ok := false
	for _, p := range TextPaths(root) {
		if !p.IsBefore(path) {
			break
		}
		t, _ := GetText(root, p)
		found, ok = Point{Path: p, Offset: t.Len()}, true
	}
	return found, ok
}

// PointAfter returns the start of the first Text after the subtree at path.
func PointAfter(root Node, path Path) (Point, bool) {
	for _, p := range TextPaths(root) {
		if p.Compare(path) > 0 && !path.Contains(p) {
			return Point{Path: p}, true
		}
	}
	return Point{}, false
}
