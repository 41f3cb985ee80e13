// Package transform provides steps, position mapping and transactions.
//
// A Step is one atomic edit of a document. Applying a step never mutates the
// input document; it returns a new revision or an error. Every step can be
// inverted against the document it was applied to, and every applied step
// produces a StepMap describing how positions move.
//
// # Steps
//
//   - ReplaceStep replaces a range with a slice
//   - AddMarkStep adds a mark to the text in a range
//   - RemoveMarkStep removes a mark type, or one exact mark, from a range
//   - SetAttrsStep replaces the attributes of the node at a position
//
// # Mapping
//
// A StepMap records the ranges a step replaced as (start, oldSize, newSize)
// triples. A Mapping chains step maps so positions computed against an old
// revision can be projected onto a newer one:
//
//	result := tr.Mapping().MapResult(pos, 1)
//	if result.Deleted() {
//		// the content around pos is gone
//	}
//
// Mapped positions always lie inside the new document.
//
// # Transactions
//
// A Transaction groups steps built against one base document together with
// metadata for plugins. A step that fails to apply records a sticky error on
// the transaction; such a transaction cannot be dispatched, which keeps
// application atomic.
package transform
