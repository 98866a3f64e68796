package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bold(start, end int) Mark {
	return Mark{Type: "bold", Start: start, End: end}
}

func TestNormalizeMarks(t *testing.T) {
	marks := NormalizeMarks([]Mark{
		{Type: "italic", Start: 4, End: 6},
		bold(0, 2),
		bold(2, 3),
		bold(5, 5),
		bold(8, 20),
	}, 10)

	require.Len(t, marks, 3)
	assert.Equal(t, bold(0, 3), marks[0], "touching ranges of one format join")
	assert.Equal(t, "italic", marks[1].Type)
	assert.Equal(t, bold(8, 10), marks[2], "ranges clamp to the text length")
}

func TestText_Slice(t *testing.T) {
	text := NewText("hello world", bold(3, 8))

	left, right := text.SplitAt(5)
	assert.Equal(t, "hello", left.Value)
	assert.Equal(t, []Mark{bold(3, 5)}, left.Marks)
	assert.Equal(t, " world", right.Value)
	assert.Equal(t, []Mark{bold(0, 3)}, right.Marks)

	none := text.Slice(9, 11)
	assert.Equal(t, "ld", none.Value)
	assert.Nil(t, none.Marks)
}

func TestText_InsertAt(t *testing.T) {
	text := NewText("abcd", bold(1, 3), Mark{Type: "code", Start: 3, End: 4})

	got := text.InsertAt(3, "XY")
	assert.Equal(t, "abcXYd", got.Value)
	assert.Equal(t, []Mark{bold(1, 5), {Type: "code", Start: 5, End: 6}}, got.Marks)
	assert.Equal(t, "abcd", text.Value, "original is unchanged")
}

func TestText_DeleteRange(t *testing.T) {
	text := NewText("abcdef", bold(1, 4), Mark{Type: "code", Start: 4, End: 6})

	got := text.DeleteRange(2, 5)
	assert.Equal(t, "abf", got.Value)
	assert.Equal(t, []Mark{bold(1, 2), {Type: "code", Start: 2, End: 3}}, got.Marks)
}

func TestText_Concat(t *testing.T) {
	got := NewText("ab", bold(0, 2)).Concat(NewText("cd", bold(0, 1)))
	assert.Equal(t, "abcd", got.Value)
	assert.Equal(t, []Mark{bold(0, 3)}, got.Marks)
}

func TestText_RuneOffsets(t *testing.T) {
	text := NewText("héllo")
	assert.Equal(t, 5, text.Len())
	assert.Equal(t, "hé", text.Slice(0, 2).Value)
}
