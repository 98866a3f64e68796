package op

import (
	"fmt"

	"github.com/travisjeffery/writegood/internal/doc"
)

// Type identifies an operation.
type Type string

const (
	TypeInsertNode    Type = "insert_node"    // Insert Node at Path
	TypeRemoveNode    Type = "remove_node"    // Remove the node at Path
	TypeSetText       Type = "set_text"       // Replace the value of the Text at Path
	TypeInsertText    Type = "insert_text"    // Insert Text at Offset in the Text at Path
	TypeRemoveText    Type = "remove_text"    // Remove Length runes at Offset in the Text at Path
	TypeSetProperties Type = "set_properties" // Merge Props (and optionally Kind) into the element at Path
	TypeMergeNodes    Type = "merge_nodes"    // Append the node at Path into the node at To, then remove it
	TypeSplitNode     Type = "split_node"     // Split the node at Path at Offset
	TypeMoveNode      Type = "move_node"      // Move the node at Path to insertion position To
	TypeSetSelection  Type = "set_selection"  // Replace the selection
)

// Operation is one atomic edit. Which fields are meaningful depends on Type.
type Operation struct {
	Type      Type
	Path      doc.Path
	To        doc.Path      // MergeNodes: target node. MoveNode: destination position.
	Node      doc.Node      // InsertNode
	Text      string        // SetText: new value. InsertText: inserted text.
	Offset    int           // InsertText/RemoveText: rune offset. SplitNode: split position.
	Length    int           // RemoveText
	Kind      doc.Kind      // SetProperties: new kind, "" keeps the current one.
	Props     doc.Map       // SetProperties: partial update. SplitNode: extra props for the new node.
	Selection doc.Selection // SetSelection
}

// InsertNode inserts node so that it ends up at path.
func InsertNode(path doc.Path, node doc.Node) Operation {
	return Operation{Type: TypeInsertNode, Path: path, Node: node}
}

// RemoveNode removes the node at path and its subtree.
func RemoveNode(path doc.Path) Operation {
	return Operation{Type: TypeRemoveNode, Path: path}
}

// SetText replaces the whole value of the Text at path. Marks are carried
// through the change.
func SetText(path doc.Path, value string) Operation {
	return Operation{Type: TypeSetText, Path: path, Text: value}
}

// InsertText inserts text at a rune offset.
func InsertText(path doc.Path, offset int, text string) Operation {
	return Operation{Type: TypeInsertText, Path: path, Offset: offset, Text: text}
}

// RemoveText removes length runes starting at offset.
func RemoveText(path doc.Path, offset, length int) Operation {
	return Operation{Type: TypeRemoveText, Path: path, Offset: offset, Length: length}
}

// SetProperties merges a partial property map into the element at path.
// A doc.Null value removes the key.
func SetProperties(path doc.Path, props doc.Map) Operation {
	return Operation{Type: TypeSetProperties, Path: path, Props: props}
}

// SetKind changes the kind of the element at path.
func SetKind(path doc.Path, kind doc.Kind) Operation {
	return Operation{Type: TypeSetProperties, Path: path, Kind: kind}
}

// MergeNodes appends the content of the node at path to the node at into
// and removes the node at path.
func MergeNodes(path, into doc.Path) Operation {
	return Operation{Type: TypeMergeNodes, Path: path, To: into}
}

// SplitNode splits the node at path in two at position (a rune offset for
// Text, a child index for elements). The second half becomes the next sibling.
func SplitNode(path doc.Path, position int) Operation {
	return Operation{Type: TypeSplitNode, Path: path, Offset: position}
}

// MoveNode moves the node at from to the insertion position to, where to is
// addressed against the tree before the move.
func MoveNode(from, to doc.Path) Operation {
	return Operation{Type: TypeMoveNode, Path: from, To: to}
}

// SetSelection replaces the selection. It does not change the tree.
func SetSelection(sel doc.Selection) Operation {
	return Operation{Type: TypeSetSelection, Selection: sel}
}

// ChangesTree reports whether the operation can modify the document.
func (o Operation) ChangesTree() bool {
	return o.Type != TypeSetSelection
}

func (o Operation) String() string {
	switch o.Type {
	case TypeInsertNode:
		kind := ""
		if o.Node != nil {
			kind = o.Node.Type().String()
			if k := doc.KindOf(o.Node); k != "" {
				kind += ":" + string(k)
			}
		}
		return fmt.Sprintf("%s %s %s", o.Type, o.Path, kind)
	case TypeSetText, TypeInsertText:
		return fmt.Sprintf("%s %s@%d %q", o.Type, o.Path, o.Offset, o.Text)
	case TypeRemoveText:
		return fmt.Sprintf("%s %s@%d+%d", o.Type, o.Path, o.Offset, o.Length)
	case TypeSetProperties:
		return fmt.Sprintf("%s %s kind=%q props=%s", o.Type, o.Path, o.Kind, doc.FormatValue(nonNilMap(o.Props)))
	case TypeMergeNodes, TypeMoveNode:
		return fmt.Sprintf("%s %s -> %s", o.Type, o.Path, o.To)
	case TypeSplitNode:
		return fmt.Sprintf("%s %s@%d", o.Type, o.Path, o.Offset)
	case TypeSetSelection:
		return fmt.Sprintf("%s %s", o.Type, o.Selection)
	default:
		return string(o.Type)
	}
}

func nonNilMap(m doc.Map) doc.Map {
	if m == nil {
		return doc.Map{}
	}
	return m
}
