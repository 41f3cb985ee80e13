// Package history provides undo/redo for the editor engine.
//
// The history records, for every dispatch that should be undoable, the
// inverted steps of all accepted transactions. Undo applies those steps as
// a new transaction through the normal pipeline, so guards see undo like
// any other edit.
//
// # Entries
//
// An Entry holds the steps that revert one dispatch, or one group of
// dispatches, together with the selection to restore:
//
//	h := history.New(1000)
//
//	next, trs, err := st.ApplyTransaction(tr)
//	h.Record(trs, st.Selection())
//
//	h.Undo(next, apply)
//
// # Rebasing
//
// Transactions with addToHistory=false are not recorded. Their mapping is
// applied to every stored step instead, so that a later undo targets the
// right positions. A step is mapped back through the steps stored before
// it, across the untracked change, and forward again, so later steps of an
// entry and deeper entries stay aligned. Steps whose range was deleted are
// dropped.
//
// # Grouping
//
// Multiple dispatches can be grouped as a single undo unit:
//
//	h.BeginGroup("Format section")
//	// ... multiple dispatches ...
//	h.EndGroup()
package history
