// Package render exports document trees as sanitized HTML.
package render

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/travisjeffery/writegood/internal/doc"
)

// DefaultBlockTags maps block kinds to HTML elements.
// Blocks of other kinds render as <div>.
var DefaultBlockTags = map[doc.Kind]atom.Atom{
	doc.KindParagraph:     atom.P,
	doc.KindOrderedList:   atom.Ol,
	doc.KindUnorderedList: atom.Ul,
	doc.KindListItem:      atom.Li,
	"heading-one":         atom.H1,
	"heading-two":         atom.H2,
	"block-quote":         atom.Blockquote,
	"code":                atom.Pre,
}

// DefaultMarkTags maps mark types to HTML elements.
// Marks of other types render as plain text.
var DefaultMarkTags = map[string]atom.Atom{
	"bold":          atom.Strong,
	"italic":        atom.Em,
	"underline":     atom.U,
	"code":          atom.Code,
	"strikethrough": atom.S,
}

// Renderer converts trees to HTML.
//
// Thread-safety: a Renderer is immutable after New and safe for concurrent use.
type Renderer struct {
	blockTags map[doc.Kind]atom.Atom
	markTags  map[string]atom.Atom
	policy    *bluemonday.Policy
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBlockTag renders blocks of kind as tag.
func WithBlockTag(kind doc.Kind, tag atom.Atom) Option {
	return func(r *Renderer) {
		r.blockTags[kind] = tag
	}
}

// WithMarkTag renders marks of type markType as tag.
func WithMarkTag(markType string, tag atom.Atom) Option {
	return func(r *Renderer) {
		r.markTags[markType] = tag
	}
}

// WithPolicy replaces the sanitization policy (default bluemonday.UGCPolicy).
func WithPolicy(p *bluemonday.Policy) Option {
	return func(r *Renderer) {
		r.policy = p
	}
}

// New creates a renderer with the default tag maps.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		blockTags: maps.Clone(DefaultBlockTags),
		markTags:  maps.Clone(DefaultMarkTags),
		policy:    bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HTML renders root (a *Document or any subtree) and sanitizes the result.
func (r *Renderer) HTML(root doc.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range r.nodes(root) {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return r.policy.Sanitize(buf.String()), nil
}

// HTML renders root with the default renderer.
func HTML(root doc.Node) (string, error) {
	return New().HTML(root)
}

// nodes converts n into detached html nodes. A Document yields its blocks.
func (r *Renderer) nodes(n doc.Node) []*html.Node {
	switch v := n.(type) {
	case *doc.Document:
		return r.children(v.Children)
	case *doc.Block:
		tag, ok := r.blockTags[v.Kind]
		if !ok {
			tag = atom.Div
		}
		el := element(tag)
		appendAll(el, r.children(v.Children))
		return []*html.Node{el}
	case *doc.Inline:
		var el *html.Node
		if href := v.Props.Str("href"); v.Kind == doc.KindLink && href != "" {
			el = element(atom.A, html.Attribute{Key: "href", Val: href})
		} else {
			el = element(atom.Span)
		}
		appendAll(el, r.children(v.Children))
		return []*html.Node{el}
	case *doc.Text:
		return r.text(v)
	default:
		return nil
	}
}

func (r *Renderer) children(children []doc.Node) []*html.Node {
	var out []*html.Node
	for _, c := range children {
		out = append(out, r.nodes(c)...)
	}
	return out
}

// text splits t at every mark boundary and wraps each segment in the tags
// of the marks covering it, outermost first in tag-name order.
func (r *Renderer) text(t *doc.Text) []*html.Node {
	runes := []rune(t.Value)
	if len(runes) == 0 {
		return nil
	}

	bounds := []int{0, len(runes)}
	for _, m := range t.Marks {
		bounds = append(bounds, m.Start, m.End)
	}
	slices.Sort(bounds)
	bounds = slices.Compact(bounds)

	var out []*html.Node
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]
		if start < 0 || end > len(runes) || start >= end {
			continue
		}
		node := &html.Node{Type: html.TextNode, Data: string(runes[start:end])}
		for _, tag := range r.coveringTags(t.Marks, start, end) {
			el := element(tag)
			el.AppendChild(node)
			node = el
		}
		out = append(out, node)
	}
	return out
}

// coveringTags returns the distinct tags of marks covering [start, end),
// innermost first.
func (r *Renderer) coveringTags(marks []doc.Mark, start, end int) []atom.Atom {
	var tags []atom.Atom
	for _, m := range marks {
		if m.Start > start || m.End < end {
			continue
		}
		tag, ok := r.markTags[m.Type]
		if !ok || slices.Contains(tags, tag) {
			continue
		}
		tags = append(tags, tag)
	}
	slices.SortFunc(tags, func(a, b atom.Atom) int {
		return strings.Compare(b.String(), a.String())
	})
	return tags
}

func element(tag atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: tag,
		Data:     tag.String(),
		Attr:     attrs,
	}
}

func appendAll(parent *html.Node, children []*html.Node) {
	for _, c := range children {
		parent.AppendChild(c)
	}
}
