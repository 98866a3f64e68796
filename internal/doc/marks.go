package doc

import (
	"cmp"
	"slices"
)

// Mark is a formatting attribute over the rune range [Start, End) of a Text.
type Mark struct {
	Type  string
	Start int
	End   int
	Attrs Map
}

func (m Mark) sameFormat(o Mark) bool {
	return m.Type == o.Type && equalMaps(m.Attrs, o.Attrs)
}

// NormalizeMarks clamps marks into [0, length], drops empty ranges, joins
// overlapping or touching ranges of the same format, and sorts the result by
// (Start, End, Type). Returns nil when no marks remain.
func NormalizeMarks(marks []Mark, length int) []Mark {
	if len(marks) == 0 {
		return nil
	}
	out := make([]Mark, 0, len(marks))
	for _, m := range marks {
		m.Start = max(0, min(m.Start, length))
		m.End = max(0, min(m.End, length))
		if m.Start >= m.End {
			continue
		}
		out = append(out, m)
	}
	slices.SortStableFunc(out, compareMarks)

	merged := make([]Mark, 0, len(out))
	for _, m := range out {
		// Input is sorted by Start, so only the latest entry of the same
		// format can overlap m.
		last := -1
		for i := len(merged) - 1; i >= 0; i-- {
			if merged[i].sameFormat(m) {
				last = i
				break
			}
		}
		if last >= 0 && m.Start <= merged[last].End {
			merged[last].End = max(merged[last].End, m.End)
			continue
		}
		merged = append(merged, m)
	}
	if len(merged) == 0 {
		return nil
	}
	slices.SortStableFunc(merged, compareMarks)
	return merged
}

func compareMarks(a, b Mark) int {
	return cmp.Or(
		cmp.Compare(a.Start, b.Start),
		cmp.Compare(a.End, b.End),
		cmp.Compare(a.Type, b.Type),
	)
}

// EqualMarks reports whether two normalized mark lists are equal.
func EqualMarks(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Start != b[i].Start || a[i].End != b[i].End || !a[i].sameFormat(b[i]) {
			return false
		}
	}
	return true
}

// MarkTypes returns the distinct mark types on t, sorted.
func (t *Text) MarkTypes() []string {
	var types []string
	for _, m := range t.Marks {
		if !slices.Contains(types, m.Type) {
			types = append(types, m.Type)
		}
	}
	slices.Sort(types)
	return types
}

// Slice returns the runes [start, end) of t with marks clipped to the range.
func (t *Text) Slice(start, end int) *Text {
	runes := []rune(t.Value)
	start = max(0, min(start, len(runes)))
	end = max(start, min(end, len(runes)))

	marks := make([]Mark, 0, len(t.Marks))
	for _, m := range t.Marks {
		m.Start = max(m.Start, start) - start
		m.End = min(m.End, end) - start
		marks = append(marks, m)
	}
	return NewText(string(runes[start:end]), marks...)
}

// SplitAt divides t at a rune offset.
func (t *Text) SplitAt(offset int) (*Text, *Text) {
	return t.Slice(0, offset), t.Slice(offset, t.Len())
}

// InsertAt returns t with s inserted at a rune offset. A mark that ends at
// or spans the offset grows to cover the inserted text; marks after it shift.
func (t *Text) InsertAt(offset int, s string) *Text {
	runes := []rune(t.Value)
	offset = max(0, min(offset, len(runes)))
	ins := []rune(s)
	n := len(ins)

	value := string(runes[:offset]) + s + string(runes[offset:])
	marks := make([]Mark, 0, len(t.Marks))
	for _, m := range t.Marks {
		switch {
		case m.Start >= offset:
			m.Start += n
			m.End += n
		case m.End >= offset:
			m.End += n
		}
		marks = append(marks, m)
	}
	return NewText(value, marks...)
}

// DeleteRange returns t without the runes [start, end).
func (t *Text) DeleteRange(start, end int) *Text {
	runes := []rune(t.Value)
	start = max(0, min(start, len(runes)))
	end = max(start, min(end, len(runes)))

	value := string(runes[:start]) + string(runes[end:])
	marks := make([]Mark, 0, len(t.Marks))
	for _, m := range t.Marks {
		m.Start = shiftForDelete(m.Start, start, end)
		m.End = shiftForDelete(m.End, start, end)
		marks = append(marks, m)
	}
	return NewText(value, marks...)
}

func shiftForDelete(pos, start, end int) int {
	switch {
	case pos <= start:
		return pos
	case pos >= end:
		return pos - (end - start)
	default:
		return start
	}
}

// Concat returns t followed by o. Marks of o shift by t's length.
func (t *Text) Concat(o *Text) *Text {
	shift := t.Len()
	marks := make([]Mark, 0, len(t.Marks)+len(o.Marks))
	marks = append(marks, t.Marks...)
	for _, m := range o.Marks {
		m.Start += shift
		m.End += shift
		marks = append(marks, m)
	}
	return NewText(t.Value+o.Value, marks...)
}
