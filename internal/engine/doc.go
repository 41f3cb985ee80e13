// Package engine provides the document editing engine for Scribe.
//
// The engine package serves as the main facade. It combines the immutable
// document model, transactions, the plugin pipeline, undo/redo and the
// decoration overlay into a single thread-safe API.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - model: immutable tree document with flat integer positions
//   - transform: steps, position mapping and transactions
//   - state: editor state and the plugin pipeline
//   - history: undo/redo of inverted steps
//   - commands: common edits built as transactions
//
// # Thread Safety
//
// All Engine operations are thread-safe. Dispatches are serialized; reads
// return the immutable state produced by the last dispatch. Update
// listeners run after the engine lock is released.
//
// # Basic Usage
//
//	e, err := engine.New(
//	    engine.WithDoc(model.NewDoc(model.NewParagraph("Hello"))),
//	    engine.WithPlugins(guard.NewLeadingGuard()),
//	)
//
//	tr := e.State().Tr().InsertText(6, " world")
//	if err := e.Dispatch(tr); err != nil {
//	    // vetoed, stale or read-only
//	}
//
//	e.Undo() // "Hello"
//
// # Dispatch
//
// Every change goes through Dispatch. A plugin filter may veto the
// transaction, in which case the engine is unchanged and the error matches
// ErrVetoed. A transaction built against an older document fails with
// ErrStaleTransaction. Accepted transactions, together with the follow-ups
// appended by plugins, are recorded for undo unless addToHistory is false.
//
// # Undo/Redo
//
// Undo applies the inverted steps of the last recorded dispatch as a new
// transaction, so guards see it like any other edit. Dispatches that opt out
// of history rebase the stored steps instead:
//
//	e.Group("Format", func() error {
//	    // several dispatches undone together
//	    return nil
//	})
package engine
