package normalize

import (
	"fmt"
	"regexp"

	"github.com/travisjeffery/writegood/internal/doc"
)

// Built-in plugin names.
const (
	PluginPasteLink          = "paste-link"
	PluginNoEmpty            = "no-empty"
	PluginLists              = "lists"
	PluginFillEmptyBlocks    = "fill-empty-blocks"
	PluginRemoveEmptyInlines = "remove-empty-inlines"
	PluginRemoveEmptyLists   = "remove-empty-lists"
	PluginMergeAdjacentText  = "merge-adjacent-text"
)

// DefaultOrder is the order built-in plugins run in unless configured
// otherwise.
var DefaultOrder = []string{
	PluginPasteLink,
	PluginNoEmpty,
	PluginLists,
	PluginFillEmptyBlocks,
	PluginRemoveEmptyInlines,
	PluginRemoveEmptyLists,
	PluginMergeAdjacentText,
}

// DefaultLinkPattern matches http and https URLs, excluding trailing
// punctuation.
const DefaultLinkPattern = `https?://[^\s<>"']*[^\s<>"'.,;:!?)\]]`

// ListKinds names the block kinds that make up lists.
type ListKinds struct {
	Ordered   doc.Kind
	Unordered doc.Kind
	Item      doc.Kind
}

// IsList reports whether kind is one of the list container kinds.
func (k ListKinds) IsList(kind doc.Kind) bool {
	return kind == k.Ordered || kind == k.Unordered
}

func (k ListKinds) isListNode(n doc.Node) bool {
	b, ok := n.(*doc.Block)
	return ok && k.IsList(b.Kind)
}

func (k ListKinds) isItemNode(n doc.Node) bool {
	b, ok := n.(*doc.Block)
	return ok && b.Kind == k.Item
}

// Settings parameterizes the built-in plugins.
type Settings struct {
	// TargetKind is the block kind no-empty keeps at least one of. Stray
	// list items are promoted to it.
	TargetKind doc.Kind

	ListKinds ListKinds

	// LinkPattern finds URL-shaped substrings in inserted text.
	LinkPattern *regexp.Regexp

	// MergeAdjacentText enables merge-adjacent-text.
	MergeAdjacentText bool

	// Plugins selects and orders built-in plugins by name. Empty means
	// DefaultOrder.
	Plugins []string
}

// DefaultSettings matches the editor's stock plugin setup: no-empty on
// paragraphs and the ordered-list/unordered-list/list-item block kinds.
func DefaultSettings() Settings {
	return Settings{
		TargetKind: doc.KindParagraph,
		ListKinds: ListKinds{
			Ordered:   doc.KindOrderedList,
			Unordered: doc.KindUnorderedList,
			Item:      doc.KindListItem,
		},
		LinkPattern:       regexp.MustCompile(DefaultLinkPattern),
		MergeAdjacentText: true,
	}
}

// Builtins returns every built-in plugin configured by s, keyed by name.
func Builtins(s Settings) map[string]Plugin {
	return map[string]Plugin{
		PluginPasteLink:          &PasteLink{Pattern: s.LinkPattern},
		PluginNoEmpty:            &NoEmpty{Kind: s.TargetKind},
		PluginLists:              &Lists{Kinds: s.ListKinds, Promote: s.TargetKind},
		PluginFillEmptyBlocks:    fillEmptyBlocks(s.ListKinds),
		PluginRemoveEmptyInlines: removeEmptyInlines(),
		PluginRemoveEmptyLists:   removeEmptyLists(s.ListKinds),
		PluginMergeAdjacentText:  mergeAdjacentText(),
	}
}

// FromSettings builds a pipeline running the built-in plugins selected by s.
func FromSettings(s Settings, opts ...Option) (*Pipeline, error) {
	if s.LinkPattern == nil {
		return nil, fmt.Errorf("link pattern is required")
	}
	order := s.Plugins
	if len(order) == 0 {
		order = DefaultOrder
	}
	builtins := Builtins(s)
	plugins := make([]Plugin, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		p, ok := builtins[name]
		if !ok {
			return nil, fmt.Errorf("unknown plugin %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("plugin %q listed twice", name)
		}
		seen[name] = true
		if name == PluginMergeAdjacentText && !s.MergeAdjacentText {
			continue
		}
		plugins = append(plugins, p)
	}
	return New(plugins, opts...), nil
}
