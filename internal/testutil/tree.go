package testutil

import "github.com/travisjeffery/writegood/internal/doc"

// Paragraphs builds a document with one paragraph per value.
func Paragraphs(values ...string) *doc.Document {
	blocks := make([]doc.Node, len(values))
	for i, v := range values {
		blocks[i] = doc.NewParagraph(v)
	}
	return doc.NewDocument(blocks...)
}

// List builds a list block of the given kind with one list item per value.
// Each item holds a paragraph.
func List(kind doc.Kind, values ...string) *doc.Block {
	items := make([]doc.Node, len(values))
	for i, v := range values {
		items[i] = doc.NewBlock(doc.KindListItem, doc.NewParagraph(v))
	}
	return doc.NewBlock(kind, items...)
}

// At returns the point at offset inside the text at path.
func At(offset int, path ...int) doc.Point {
	return doc.Point{Path: doc.Path(path), Offset: offset}
}

// Cursor returns a collapsed selection at offset inside the text at path.
func Cursor(offset int, path ...int) doc.Selection {
	return doc.Collapsed(At(offset, path...))
}

// Range returns a selection from anchor to focus.
func Range(anchor, focus doc.Point) doc.Selection {
	return doc.Selection{Anchor: anchor, Focus: focus}
}
