package op

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travisjeffery/writegood/internal/doc"
)

func paragraphs(values ...string) *doc.Document {
	blocks := make([]doc.Node, len(values))
	for i, v := range values {
		blocks[i] = doc.NewParagraph(v)
	}
	return doc.NewDocument(blocks...)
}

func point(offset int, path ...int) doc.Point {
	return doc.Point{Path: doc.Path(path), Offset: offset}
}

func transactCursor(t *testing.T, root *doc.Document, cursor doc.Point, ops ...Operation) State {
	t.Helper()
	sel := doc.Collapsed(cursor)
	st, err := Transact(State{Doc: root, Selection: &sel}, ops)
	require.NoError(t, err)
	require.NotNil(t, st.Selection)
	return st
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	root := paragraphs("hello")
	before := doc.MustHash(root)

	out, err := Apply(root, InsertNode(doc.Path{1}, doc.NewParagraph("world")))
	require.NoError(t, err)

	assert.Len(t, root.Children, 1)
	assert.Len(t, out.Children, 2)
	assert.Same(t, root.Children[0], out.Children[0], "untouched subtrees are shared")
	assert.Equal(t, before, doc.MustHash(root))
}

func TestApply_AddressesIntermediateTree(t *testing.T) {
	root := paragraphs("hello")

	out, err := Apply(root,
		InsertNode(doc.Path{0}, doc.NewParagraph("a")),
		SetText(doc.Path{1, 0}, "HELLO"),
	)
	require.NoError(t, err)
	assert.True(t, doc.Equal(paragraphs("a", "HELLO"), out))
}

func TestApply_InvalidPathFailsWholeBatch(t *testing.T) {
	root := paragraphs("hello")

	out, err := Apply(root,
		InsertText(doc.Path{0, 0}, 0, "x"),
		RemoveNode(doc.Path{5}),
	)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, IsInvalidPathError(err))

	var pe *InvalidPathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, TypeRemoveNode, pe.Op)
	assert.Equal(t, doc.Path{5}, pe.Path)
	assert.True(t, doc.Equal(paragraphs("hello"), root))
}

func TestApply_Errors(t *testing.T) {
	root := paragraphs("hello", "x")
	tests := []struct {
		name string
		op   Operation
	}{
		{"insert at root", InsertNode(doc.Path{}, doc.NewParagraph("x"))},
		{"insert past end", InsertNode(doc.Path{3}, doc.NewParagraph("x"))},
		{"insert text into document", InsertNode(doc.Path{0}, doc.NewText("x"))},
		{"insert into text", InsertNode(doc.Path{0, 0, 0}, doc.NewText("a"))},
		{"remove root", RemoveNode(doc.Path{})},
		{"set text on block", SetText(doc.Path{0}, "x")},
		{"insert text offset", InsertText(doc.Path{0, 0}, 6, "x")},
		{"remove text range", RemoveText(doc.Path{0, 0}, 3, 3)},
		{"props on text", SetProperties(doc.Path{0, 0}, doc.Map{"a": doc.Int(1)})},
		{"props on document", SetKind(doc.Path{}, doc.KindParagraph)},
		{"merge into ancestor", MergeNodes(doc.Path{0, 0}, doc.Path{0})},
		{"merge missing", MergeNodes(doc.Path{2}, doc.Path{0})},
		{"merge mixed variants", MergeNodes(doc.Path{1, 0}, doc.Path{0})},
		{"split offset", SplitNode(doc.Path{0, 0}, 9)},
		{"move inside itself", MoveNode(doc.Path{0}, doc.Path{0, 1})},
		{"move to bad parent", MoveNode(doc.Path{0, 0}, doc.Path{4, 0})},
		{"unknown", Operation{Type: "frobnicate", Path: doc.Path{0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(root, tt.op)
			require.Error(t, err)
			assert.True(t, IsInvalidPathError(err), "got %v", err)
		})
	}
}

func TestSetText_CarriesMarksAndReportsInsertions(t *testing.T) {
	text := doc.NewText("hello world", doc.Mark{Type: "bold", Start: 6, End: 11})
	root := doc.NewDocument(doc.NewBlock(doc.KindParagraph, text))

	st := transactCursor(t, root, point(8, 0, 0), SetText(doc.Path{0, 0}, "hello big world"))

	got, ok := doc.GetText(st.Doc, doc.Path{0, 0})
	require.True(t, ok)
	assert.Equal(t, "hello big world", got.Value)
	assert.Equal(t, []doc.Mark{{Type: "bold", Start: 10, End: 15}}, got.Marks)
	assert.Equal(t, []TextRange{{Path: doc.Path{0, 0}, Start: 6, End: 10}}, st.Inserted)
	assert.Equal(t, point(12, 0, 0), st.Selection.Anchor)
}

func TestInsertAndRemoveText(t *testing.T) {
	root := paragraphs("hello")

	st := transactCursor(t, root, point(5, 0, 0), InsertText(doc.Path{0, 0}, 5, " world"))
	assert.Equal(t, point(11, 0, 0), st.Selection.Focus)
	assert.Equal(t, []TextRange{{Path: doc.Path{0, 0}, Start: 5, End: 11}}, st.Inserted)

	st, err := Transact(st, []Operation{RemoveText(doc.Path{0, 0}, 0, 2)})
	require.NoError(t, err)
	got, _ := doc.GetText(st.Doc, doc.Path{0, 0})
	assert.Equal(t, "llo world", got.Value)
	assert.Equal(t, point(9, 0, 0), st.Selection.Focus)
	assert.Equal(t, []TextRange{{Path: doc.Path{0, 0}, Start: 3, End: 9}}, st.Inserted)
}

func TestSetProperties(t *testing.T) {
	list := &doc.Block{Kind: doc.KindOrderedList, Props: doc.Map{"depth": doc.Int(1)}, Children: []doc.Node{doc.NewText("x")}}
	root := doc.NewDocument(list)

	out, err := Apply(root, SetProperties(doc.Path{0}, doc.Map{"depth": doc.Null{}, "start": doc.Int(2)}))
	require.NoError(t, err)
	b := out.Children[0].(*doc.Block)
	assert.Equal(t, doc.KindOrderedList, b.Kind)
	assert.Equal(t, doc.Map{"start": doc.Int(2)}, b.Props)

	out, err = Apply(out, SetKind(doc.Path{0}, doc.KindParagraph))
	require.NoError(t, err)
	b = out.Children[0].(*doc.Block)
	assert.Equal(t, doc.KindParagraph, b.Kind)
	assert.Equal(t, doc.Map{"start": doc.Int(2)}, b.Props)
}

func TestMergeNodes_Text(t *testing.T) {
	root := doc.NewDocument(doc.NewBlock(doc.KindParagraph,
		doc.NewText("ab"),
		doc.NewText("cd", doc.Mark{Type: "em", Start: 0, End: 2}),
	))

	st := transactCursor(t, root, point(1, 0, 1), MergeNodes(doc.Path{0, 1}, doc.Path{0, 0}))

	want := doc.NewDocument(doc.NewBlock(doc.KindParagraph,
		doc.NewText("abcd", doc.Mark{Type: "em", Start: 2, End: 4}),
	))
	assert.True(t, doc.Equal(want, st.Doc))
	assert.Equal(t, point(3, 0, 0), st.Selection.Anchor)
}

func TestMergeNodes_Blocks(t *testing.T) {
	root := paragraphs("a", "b")

	st := transactCursor(t, root, point(1, 1, 0), MergeNodes(doc.Path{1}, doc.Path{0}))

	want := doc.NewDocument(doc.NewBlock(doc.KindParagraph, doc.NewText("a"), doc.NewText("b")))
	assert.True(t, doc.Equal(want, st.Doc))
	assert.Equal(t, point(1, 0, 1), st.Selection.Anchor)
}

func TestSplitNode_Text(t *testing.T) {
	root := paragraphs("hello")

	st := transactCursor(t, root, point(3, 0, 0), SplitNode(doc.Path{0, 0}, 2))

	want := doc.NewDocument(doc.NewBlock(doc.KindParagraph, doc.NewText("he"), doc.NewText("llo")))
	assert.True(t, doc.Equal(want, st.Doc))
	assert.Equal(t, point(1, 0, 1), st.Selection.Anchor)
}

func TestSplitNode_Block(t *testing.T) {
	root := doc.NewDocument(doc.NewBlock(doc.KindParagraph, doc.NewText("a"), doc.NewText("b")), doc.NewParagraph("c"))

	st := transactCursor(t, root, point(0, 0, 1), SplitNode(doc.Path{0}, 1))

	assert.True(t, doc.Equal(paragraphs("a", "b", "c"), st.Doc))
	assert.Equal(t, point(0, 1, 0), st.Selection.Anchor)
}

func TestMoveNode(t *testing.T) {
	root := paragraphs("a", "b", "c")

	st := transactCursor(t, root, point(1, 0, 0), MoveNode(doc.Path{0}, doc.Path{3}))
	assert.True(t, doc.Equal(paragraphs("b", "c", "a"), st.Doc))
	assert.Equal(t, point(1, 2, 0), st.Selection.Anchor)

	st = transactCursor(t, root, point(0, 2, 0), MoveNode(doc.Path{0}, doc.Path{3}))
	assert.Equal(t, point(0, 1, 0), st.Selection.Anchor)

	out, err := Apply(root, MoveNode(doc.Path{2}, doc.Path{0}))
	require.NoError(t, err)
	assert.True(t, doc.Equal(paragraphs("c", "a", "b"), out))

	out, err = Apply(root, MoveNode(doc.Path{1}, doc.Path{1}))
	require.NoError(t, err)
	assert.True(t, doc.Equal(root, out))
}

func TestRemoveNode_SelectionFallback(t *testing.T) {
	root := paragraphs("a", "bb")

	st := transactCursor(t, root, point(1, 1, 0), RemoveNode(doc.Path{1}))
	assert.Equal(t, point(1, 0, 0), st.Selection.Anchor, "falls back to the end of the previous text")

	st = transactCursor(t, root, point(0, 0, 0), RemoveNode(doc.Path{0}))
	assert.Equal(t, point(0, 0, 0), st.Selection.Anchor, "falls forward to the start of the next text")

	sel := doc.Collapsed(point(0, 0, 0))
	st, err := Transact(State{Doc: paragraphs("a"), Selection: &sel}, []Operation{RemoveNode(doc.Path{0})})
	require.NoError(t, err)
	assert.Nil(t, st.Selection, "nothing left to point at")
}

func TestTransact_InsertedRangesFollowLaterOps(t *testing.T) {
	root := paragraphs("a")

	st, err := Transact(State{Doc: root}, []Operation{
		InsertNode(doc.Path{1}, doc.NewParagraph("new")),
		InsertNode(doc.Path{0}, doc.NewParagraph("")),
	})
	require.NoError(t, err)
	assert.Equal(t, []TextRange{{Path: doc.Path{2, 0}, Start: 0, End: 3}}, st.Inserted)

	st, err = Transact(st, []Operation{SplitNode(doc.Path{2, 0}, 1)})
	require.NoError(t, err)
	assert.Equal(t, []TextRange{
		{Path: doc.Path{2, 0}, Start: 0, End: 1},
		{Path: doc.Path{2, 1}, Start: 0, End: 2},
	}, st.Inserted)

	st, err = Transact(st, []Operation{RemoveNode(doc.Path{2})})
	require.NoError(t, err)
	assert.Empty(t, st.Inserted)
}

func TestSetSelection(t *testing.T) {
	root := paragraphs("abc")
	sel := doc.Selection{Anchor: point(0, 0, 0), Focus: point(3, 0, 0)}

	st, err := Transact(State{Doc: root}, []Operation{SetSelection(sel)})
	require.NoError(t, err)
	require.NotNil(t, st.Selection)
	assert.True(t, sel.Equal(*st.Selection))
	assert.Same(t, root, st.Doc)
	assert.False(t, SetSelection(sel).ChangesTree())
}

func TestTransformPath(t *testing.T) {
	root := paragraphs("a", "b")

	p, ok := TransformPath(doc.Path{1, 0}, InsertNode(doc.Path{0}, doc.NewParagraph("x")), root)
	require.True(t, ok)
	assert.Equal(t, doc.Path{2, 0}, p)

	_, ok = TransformPath(doc.Path{1, 0}, RemoveNode(doc.Path{1}), root)
	assert.False(t, ok)
}

func TestSetSelection_MustResolve(t *testing.T) {
	root := paragraphs("abc")

	tests := []struct {
		name string
		ops  []Operation
		path doc.Path
	}{
		{
			name: "missing path",
			ops:  []Operation{SetSelection(doc.Selection{Anchor: point(0, 7, 3), Focus: point(99, 7, 3)})},
			path: doc.Path{7, 3},
		},
		{
			name: "offset past the end",
			ops:  []Operation{SetSelection(doc.Collapsed(point(4, 0, 0)))},
			path: doc.Path{0, 0},
		},
		{
			name: "block instead of text",
			ops:  []Operation{SetSelection(doc.Collapsed(point(0, 0)))},
			path: doc.Path{0},
		},
		{
			name: "checked against the intermediate tree",
			ops: []Operation{
				InsertText(doc.Path{0, 0}, 3, "def"),
				SetSelection(doc.Selection{Anchor: point(0, 0, 0), Focus: point(50, 0, 0)}),
			},
			path: doc.Path{0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transact(State{Doc: root}, tt.ops)
			require.Error(t, err)

			var pe *InvalidPathError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, len(tt.ops)-1, pe.Index)
			assert.Equal(t, TypeSetSelection, pe.Op)
			assert.Equal(t, tt.path, pe.Path)
		})
	}
}

func TestSetSelection_AfterEditInSameBatch(t *testing.T) {
	root := paragraphs("abc")
	sel := doc.Collapsed(point(6, 0, 0))

	st, err := Transact(State{Doc: root}, []Operation{
		InsertText(doc.Path{0, 0}, 3, "def"),
		SetSelection(sel),
	})
	require.NoError(t, err)
	require.NotNil(t, st.Selection)
	assert.Equal(t, sel, *st.Selection)
}
