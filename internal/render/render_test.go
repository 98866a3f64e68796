package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html/atom"

	"github.com/travisjeffery/writegood/internal/doc"
)

func TestHTML(t *testing.T) {
	tests := []struct {
		name string
		root doc.Node
		want string
	}{
		{
			name: "paragraph",
			root: doc.NewDocument(doc.NewParagraph("hello")),
			want: "<p>hello</p>",
		},
		{
			name: "empty paragraph",
			root: doc.NewDocument(doc.NewBlock(doc.KindParagraph, doc.NewText(""))),
			want: "<p></p>",
		},
		{
			name: "mark",
			root: doc.NewDocument(doc.NewBlock(doc.KindParagraph,
				doc.NewText("hello", doc.Mark{Type: "bold", Start: 2, End: 5}))),
			want: "<p>he<strong>llo</strong></p>",
		},
		{
			name: "nested marks",
			root: doc.NewDocument(doc.NewBlock(doc.KindParagraph,
				doc.NewText("abc",
					doc.Mark{Type: "bold", Start: 0, End: 3},
					doc.Mark{Type: "italic", Start: 1, End: 2},
				))),
			want: "<p><strong>a</strong><em><strong>b</strong></em><strong>c</strong></p>",
		},
		{
			name: "unknown mark renders plain",
			root: doc.NewDocument(doc.NewBlock(doc.KindParagraph,
				doc.NewText("abc", doc.Mark{Type: "comment", Start: 0, End: 3}))),
			want: "<p>abc</p>",
		},
		{
			name: "lists",
			root: doc.NewDocument(
				doc.NewBlock(doc.KindUnorderedList,
					doc.NewBlock(doc.KindListItem, doc.NewParagraph("a")),
				),
				doc.NewBlock(doc.KindOrderedList,
					doc.NewBlock(doc.KindListItem, doc.NewText("b")),
				),
			),
			want: "<ul><li><p>a</p></li></ul><ol><li>b</li></ol>",
		},
		{
			name: "unknown block kind",
			root: doc.NewDocument(doc.NewBlock("callout", doc.NewText("x"))),
			want: "<div>x</div>",
		},
		{
			name: "escaping",
			root: doc.NewDocument(doc.NewParagraph("a < b")),
			want: "<p>a &lt; b</p>",
		},
		{
			name: "subtree",
			root: doc.NewParagraph("only"),
			want: "<p>only</p>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTML(tt.root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTML_Link(t *testing.T) {
	root := doc.NewDocument(doc.NewBlock(doc.KindParagraph,
		doc.NewText("see "),
		doc.NewLink("https://example.com", doc.NewText("https://example.com")),
	))

	got, err := HTML(root)
	require.NoError(t, err)
	assert.Contains(t, got, `href="https://example.com"`)
	assert.Contains(t, got, ">https://example.com</a></p>")
	assert.Contains(t, got, "<p>see <a ")
}

func TestHTML_SanitizesLinks(t *testing.T) {
	root := doc.NewDocument(doc.NewBlock(doc.KindParagraph,
		doc.NewLink("javascript:alert(1)", doc.NewText("click")),
	))

	got, err := HTML(root)
	require.NoError(t, err)
	assert.NotContains(t, got, "javascript")
	assert.Contains(t, got, "click")
}

func TestHTML_Options(t *testing.T) {
	r := New(
		WithBlockTag("callout", atom.Aside),
		WithMarkTag("highlight", atom.Mark),
	)
	root := doc.NewDocument(doc.NewBlock("callout",
		doc.NewText("x", doc.Mark{Type: "highlight", Start: 0, End: 1})))

	got, err := r.HTML(root)
	require.NoError(t, err)
	assert.Equal(t, "<aside><mark>x</mark></aside>", got)

	plain, err := HTML(root)
	require.NoError(t, err)
	assert.Equal(t, "<div>x</div>", plain, "options do not leak into the defaults")
}
