package op

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travisjeffery/writegood/internal/doc"
)

func TestDecodeBatch_YAML(t *testing.T) {
	data := []byte(`
- type: insert_node
  path: [1]
  node:
    object: block
    type: paragraph
    nodes:
      - {object: text, text: two}
- {type: insert_text, path: [0, 0], offset: 3, text: "!"}
- {type: set_properties, path: [1], kind: list-item, props: {depth: 2, start: null}}
- {type: merge_nodes, path: [1], to: [0]}
- type: set_selection
  selection:
    anchor: {path: [0, 0], offset: 0}
    focus: {path: [0, 0], offset: 2}
`)
	ops, err := DecodeBatch(data)
	require.NoError(t, err)
	require.Len(t, ops, 5)

	assert.Equal(t, TypeInsertNode, ops[0].Type)
	assert.Equal(t, doc.Path{1}, ops[0].Path)
	assert.True(t, doc.Equal(doc.NewParagraph("two"), ops[0].Node))

	assert.Equal(t, InsertText(doc.Path{0, 0}, 3, "!"), ops[1])

	assert.Equal(t, doc.KindListItem, ops[2].Kind)
	assert.Equal(t, doc.Map{"depth": doc.Int(2), "start": doc.Null{}}, ops[2].Props)

	assert.Equal(t, MergeNodes(doc.Path{1}, doc.Path{0}), ops[3])

	assert.Equal(t, doc.Selection{Anchor: point(0, 0, 0), Focus: point(2, 0, 0)}, ops[4].Selection)
}

func TestDecodeBatch_JSON(t *testing.T) {
	data := []byte(`[{"type":"remove_text","path":[0,0],"offset":1,"length":2},{"type":"split_node","path":[0],"offset":1}]`)
	ops, err := DecodeBatch(data)
	require.NoError(t, err)
	assert.Equal(t, []Operation{RemoveText(doc.Path{0, 0}, 1, 2), SplitNode(doc.Path{0}, 1)}, ops)
}

func TestDecodeBatch_Errors(t *testing.T) {
	tests := map[string]string{
		"not a list":   `{type: remove_node}`,
		"unknown type": `[{type: explode, path: [0]}]`,
		"bad path":     `[{type: remove_node, path: [a]}]`,
		"float offset": `[{type: split_node, path: [0], offset: 1.5}]`,
		"bad node":     `[{type: insert_node, path: [0], node: {object: widget}}]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeBatch([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestEncodeBatch_RoundTrip(t *testing.T) {
	ops := []Operation{
		InsertNode(doc.Path{0}, doc.NewParagraph("x")),
		RemoveText(doc.Path{0, 0}, 0, 1),
		SetKind(doc.Path{0}, doc.KindListItem),
		SetSelection(doc.Collapsed(point(0, 0, 0))),
	}
	data, err := EncodeBatch(ops)
	require.NoError(t, err)

	back, err := DecodeBatch(data)
	require.NoError(t, err)
	require.Len(t, back, len(ops))
	assert.True(t, doc.Equal(ops[0].Node, back[0].Node))
	assert.Equal(t, ops[1:], back[1:])
}
