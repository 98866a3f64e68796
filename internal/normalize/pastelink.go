package normalize

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/op"
)

// PasteLink wraps URL-shaped substrings of newly inserted text in link
// inlines. Only words touching an inserted range are scanned, so the cost
// follows the size of the edit rather than the document.
type PasteLink struct {
	Pattern *regexp.Regexp
}

func (p *PasteLink) Name() string { return PluginPasteLink }

func (p *PasteLink) Check(st op.State) (Violation, bool) {
	for _, r := range st.Inserted {
		t, ok := doc.GetText(st.Doc, r.Path)
		if !ok {
			continue
		}
		if v, ok := p.checkLinkEdit(st.Doc, r, t); ok {
			return v, true
		}
		if _, inInline := parentOf(st.Doc, r.Path).(*doc.Inline); inInline {
			continue
		}
		start, end, ok := p.match(t.Value, r.Start, r.End)
		if !ok {
			continue
		}
		return Violation{
			Plugin:  PluginPasteLink,
			Path:    r.Path.Clone(),
			Message: fmt.Sprintf("unlinked URL at [%d,%d)", start, end),
			Start:   start,
			End:     end,
		}, true
	}
	return Violation{}, false
}

// checkLinkEdit reports an autolink (a link whose text equals its href)
// that the inserted range r has changed. Two edits qualify: text typed
// inside the link, and text typed right after it that extends the URL.
// The violation points at the link; Fix unwraps it so the word is matched
// again as a whole.
func (p *PasteLink) checkLinkEdit(root *doc.Document, r op.TextRange, t *doc.Text) (Violation, bool) {
	runes := []rune(t.Value)
	parentPath := r.Path.Parent()

	if href, _, ok := linkText(parentOf(root, r.Path)); ok {
		before := string(runes[:r.Start]) + string(runes[r.End:])
		if before != href || t.Value == href {
			return Violation{}, false
		}
		return Violation{
			Plugin:  PluginPasteLink,
			Path:    parentPath.Clone(),
			Message: fmt.Sprintf("link text %q no longer matches href %q", t.Value, href),
		}, true
	}

	idx := r.Path.Last()
	if idx < 1 || len(runes) == 0 || unicode.IsSpace(runes[0]) {
		return Violation{}, false
	}
	prevPath := parentPath.Child(idx - 1)
	prev, _ := doc.Get(root, prevPath)
	href, linked, ok := linkText(prev)
	if !ok || linked.Value != href {
		return Violation{}, false
	}
	word := runes
	for i, c := range runes {
		if unicode.IsSpace(c) {
			word = runes[:i]
			break
		}
	}
	// Only edits inside the word that touches the link count.
	if r.Start > len(word) {
		return Violation{}, false
	}
	combined := href + string(word)
	loc := p.Pattern.FindStringIndex(combined)
	if loc == nil || loc[0] != 0 || loc[1] <= len(href) {
		return Violation{}, false
	}
	return Violation{
		Plugin:  PluginPasteLink,
		Path:    prevPath,
		Message: fmt.Sprintf("URL %q continues after link", combined[:loc[1]]),
	}, true
}

// linkText returns the href and the only child of a link inline.
func linkText(n doc.Node) (string, *doc.Text, bool) {
	in, ok := n.(*doc.Inline)
	if !ok || in.Kind != doc.KindLink || len(in.Children) != 1 {
		return "", nil, false
	}
	t, ok := in.Children[0].(*doc.Text)
	if !ok {
		return "", nil, false
	}
	href := in.Props.Str("href")
	if href == "" {
		return "", nil, false
	}
	return href, t, true
}

// match looks for the pattern in the words overlapping [start, end) and
// returns the first match as rune offsets into value.
func (p *PasteLink) match(value string, start, end int) (int, int, bool) {
	runes := []rune(value)
	start = max(0, min(start, len(runes)))
	end = max(start, min(end, len(runes)))
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	for end < len(runes) && !unicode.IsSpace(runes[end]) {
		end++
	}

	segment := string(runes[start:end])
	for _, loc := range p.Pattern.FindAllStringIndex(segment, -1) {
		s := start + utf8.RuneCountInString(segment[:loc[0]])
		e := start + utf8.RuneCountInString(segment[:loc[1]])
		if e > s {
			return s, e, true
		}
	}
	return 0, 0, false
}

// Fix splits the text around the match and moves the middle piece into a
// new link inline, so selection points inside the text follow it.
//
// A violation on a link inline unwraps it instead: its children move out
// after it and the empty link is removed.
func (p *PasteLink) Fix(st op.State, v Violation) ([]op.Operation, error) {
	if n, ok := doc.Get(st.Doc, v.Path); ok {
		if in, isInline := n.(*doc.Inline); isInline {
			return unwrap(v.Path, len(in.Children)), nil
		}
	}
	t, ok := doc.GetText(st.Doc, v.Path)
	if !ok {
		return nil, fmt.Errorf("no text at %s", v.Path)
	}
	if v.Start < 0 || v.End > t.Len() || v.Start >= v.End {
		return nil, fmt.Errorf("range [%d,%d) outside text of length %d", v.Start, v.End, t.Len())
	}
	href := string([]rune(t.Value)[v.Start:v.End])

	parent := v.Path.Parent()
	mid := v.Path.Last()
	var ops []op.Operation
	if v.End < t.Len() {
		ops = append(ops, op.SplitNode(v.Path, v.End))
	}
	if v.Start > 0 {
		ops = append(ops, op.SplitNode(v.Path, v.Start))
		mid++
	}
	link := doc.NewInline(doc.KindLink, doc.Map{"href": doc.String(href)})
	ops = append(ops,
		op.InsertNode(parent.Child(mid), link),
		op.MoveNode(parent.Child(mid+1), parent.Child(mid).Child(0)),
	)
	return ops, nil
}

// unwrap moves the n children of the inline at path out after it, keeping
// their order, then removes the inline.
func unwrap(path doc.Path, n int) []op.Operation {
	ops := make([]op.Operation, 0, n+1)
	for k := n - 1; k >= 0; k-- {
		ops = append(ops, op.MoveNode(path.Child(k), path.Next()))
	}
	return append(ops, op.RemoveNode(path))
}
