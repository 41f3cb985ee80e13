// Package guard provides pipeline plugins that keep structural invariants of
// the document.
//
// # Leading node
//
// LeadingGuard requires the first child of the document to have a Shape,
// by default a level 1 heading. Its filter simulates every document-changing
// transaction and vetoes those that would break the shape. If the shape is
// lost anyway, its follow-up transaction reinserts the previous first node,
// or a blank one, at position 0.
//
// # Unique ids
//
// UniqueIDGuard gives every heading and title node an id and reassigns ids
// that repeat an earlier one. Document order decides: the first occurrence
// keeps its id.
//
// # Persistent highlight
//
// HighlightGuard tracks a range that stays highlighted while the editor is
// not focused. Transactions carrying HighlightMeta set or clear it; any
// other document change clears it unless RemapOnChange is enabled.
package guard
