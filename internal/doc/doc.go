// Package doc defines the editable document tree for writegood.
//
// A tree is built from four node variants: Document (the root), Block,
// Inline and Text. Blocks hold other blocks or inline content, inlines hold
// text runs, and text runs carry character-range marks instead of nested
// formatting nodes.
//
// Trees are values. Nothing in this module mutates a node once it has been
// handed to another component: edits (see internal/op) copy the spine from
// the root down to the edited node and share every untouched subtree with
// the previous version. Node identity is therefore pointer identity, and a
// node keeps it across edits made elsewhere in the tree.
//
// Paths are never stored on nodes. A Path is the sequence of child indices
// from the Document root and is recomputed by walking the current tree.
//
// Key design constraints:
//   - Offsets (text, marks, selection points) count runes, not bytes
//   - Property values are a closed set of JSON-compatible types, no floats
//   - The canonical encoding (Encode/Hash) is deterministic byte-for-byte
package doc
