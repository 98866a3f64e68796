// Package op implements the operation log: the atomic edits that turn one
// document version into the next.
//
// A batch is applied as a sequence of single-operation transformations.
// Every operation addresses the tree exactly as it exists after the previous
// operation in the same batch, never the tree the batch started from.
//
// Application is purely functional. Apply copies the spine from the root to
// each edited node and shares all other subtrees with the input tree, which
// is never modified. An operation whose path does not resolve fails the whole
// batch with InvalidPathError; callers keep their prior tree.
//
// Transact additionally carries a selection and the set of text ranges
// inserted so far through each step, so that later consumers (selection
// remapping, the paste-link rule) see coordinates valid in the final tree.
package op
