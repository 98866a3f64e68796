package doc

import (
	"fmt"
	"unicode/utf8"
)

// Type identifies a node variant.
type Type uint8

const (
	TypeDocument Type = iota + 1
	TypeBlock
	TypeInline
	TypeText
)

func (t Type) String() string {
	switch t {
	case TypeDocument:
		return "document"
	case TypeBlock:
		return "block"
	case TypeInline:
		return "inline"
	case TypeText:
		return "text"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Kind labels a Block or Inline. The set is open; these are the kinds the
// built-in normalization rules know about.
type Kind string

const (
	KindParagraph     Kind = "paragraph"
	KindOrderedList   Kind = "ordered-list"
	KindUnorderedList Kind = "unordered-list"
	KindListItem      Kind = "list-item"
	KindLink          Kind = "link"
)

// Node is one element of a document tree: *Document, *Block, *Inline or *Text.
type Node interface {
	Type() Type
	node()
}

// Document is the root of a tree. Its children are Blocks.
type Document struct {
	Children []Node
}

// Block is a structural element. Children are Blocks, Inlines or Texts.
type Block struct {
	Kind     Kind
	Props    Map
	Children []Node
}

// Inline is an element inside a block's text flow, such as a link.
// Children are Texts.
type Inline struct {
	Kind     Kind
	Props    Map
	Children []Node
}

// Text is a leaf run of characters with range marks.
type Text struct {
	Value string
	Marks []Mark
}

func (*Document) Type() Type { return TypeDocument }
func (*Block) Type() Type    { return TypeBlock }
func (*Inline) Type() Type   { return TypeInline }
func (*Text) Type() Type     { return TypeText }

func (*Document) node() {}
func (*Block) node()    {}
func (*Inline) node()   {}
func (*Text) node()     {}

// Len returns the length of the text in runes.
func (t *Text) Len() int {
	return utf8.RuneCountInString(t.Value)
}

// NewDocument builds a document from blocks.
func NewDocument(blocks ...Node) *Document {
	return &Document{Children: blocks}
}

// NewBlock builds a block of the given kind.
func NewBlock(kind Kind, children ...Node) *Block {
	return &Block{Kind: kind, Children: children}
}

// NewParagraph builds a paragraph holding a single unmarked text run.
func NewParagraph(text string) *Block {
	return NewBlock(KindParagraph, NewText(text))
}

// NewInline builds an inline of the given kind.
func NewInline(kind Kind, props Map, children ...Node) *Inline {
	return &Inline{Kind: kind, Props: props, Children: children}
}

// NewLink builds a link inline wrapping text, with an href property.
func NewLink(href string, text *Text) *Inline {
	return NewInline(KindLink, Map{"href": String(href)}, text)
}

// NewText builds a text run. Marks are normalized against the text length.
func NewText(value string, marks ...Mark) *Text {
	t := &Text{Value: value}
	t.Marks = NormalizeMarks(marks, t.Len())
	return t
}

// Children returns the child list of n, or nil for Text.
// The returned slice belongs to the node and must not be modified.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Document:
		return v.Children
	case *Block:
		return v.Children
	case *Inline:
		return v.Children
	default:
		return nil
	}
}

// WithChildren returns a shallow copy of n with its child list replaced.
// Text has no children and is returned unchanged with ok=false.
func WithChildren(n Node, children []Node) (Node, bool) {
	switch v := n.(type) {
	case *Document:
		return &Document{Children: children}, true
	case *Block:
		return &Block{Kind: v.Kind, Props: v.Props, Children: children}, true
	case *Inline:
		return &Inline{Kind: v.Kind, Props: v.Props, Children: children}, true
	default:
		return n, false
	}
}

// KindOf returns the kind of a Block or Inline, and "" otherwise.
func KindOf(n Node) Kind {
	switch v := n.(type) {
	case *Block:
		return v.Kind
	case *Inline:
		return v.Kind
	default:
		return ""
	}
}

// PropsOf returns the properties of a Block or Inline, and nil otherwise.
func PropsOf(n Node) Map {
	switch v := n.(type) {
	case *Block:
		return v.Props
	case *Inline:
		return v.Props
	default:
		return nil
	}
}

// IsElement reports whether n can hold children.
func IsElement(n Node) bool {
	switch n.(type) {
	case *Document, *Block, *Inline:
		return true
	default:
		return false
	}
}

// CanContain reports whether a node of type child may be a direct child of parent.
func CanContain(parent Node, child Node) bool {
	if child == nil {
		return false
	}
	switch parent.(type) {
	case *Document:
		return child.Type() == TypeBlock
	case *Block:
		return child.Type() != TypeDocument
	case *Inline:
		return child.Type() == TypeText
	default:
		return false
	}
}

// Equal reports whether two trees are structurally equal: same variants,
// kinds, properties, text values and marks, in the same order.
func Equal(a, b Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Type() != b.Type() {
		return false
	}
	if ta, ok := a.(*Text); ok {
		tb := b.(*Text)
		return ta.Value == tb.Value && EqualMarks(ta.Marks, tb.Marks)
	}
	if KindOf(a) != KindOf(b) || !equalMaps(PropsOf(a), PropsOf(b)) {
		return false
	}
	ca, cb := Children(a), Children(b)
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if !Equal(ca[i], cb[i]) {
			return false
		}
	}
	return true
}
