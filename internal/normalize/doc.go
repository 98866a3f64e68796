// Package normalize restores document invariants after an edit.
//
// A Pipeline runs an ordered list of plugins. Each plugin can check a tree
// for one violation and produce a corrective batch of operations for it.
// The loop repeatedly takes the first violation reported by the first
// plugin that reports one, applies that plugin's fix, and starts over. It
// stops when no plugin reports anything.
//
// Termination is guaranteed by two independent checks:
//   - an iteration budget (DefaultMaxIterations) catches plugins that keep
//     making progress forever;
//   - a content-hash history catches fixes that bring back a tree already
//     seen during the same run.
//
// Either failure aborts with *DivergedError. The caller keeps its prior tree.
//
// The built-in plugins, in their default order, are:
//
//	paste-link           wraps URL-shaped text in newly inserted ranges in link inlines
//	no-empty             keeps at least one block of the target kind in the document
//	lists                keeps list items inside lists and list children inside items
//	fill-empty-blocks    gives childless blocks an empty text
//	remove-empty-inlines removes inlines with no text
//	remove-empty-lists   removes lists with no items
//	merge-adjacent-text  merges sibling texts with the same marks
package normalize
