// Package commands provides common edits built as transactions.
//
// A Command inspects a state and returns the transaction that performs the
// edit, or nil when there is nothing to do. Commands never dispatch on
// their own; Run and Registry.Execute dispatch through an engine so that
// guards, history and listeners see the edit.
//
// # Built-in Commands
//
//   - insertText: replace the selection with text, inheriting marks
//   - deleteSelection: delete the selected range
//   - toggleMark: add a mark to the selection, or remove it when the whole
//     selection already carries it
//   - setHeading: turn the selected text blocks into headings of a level,
//     or back into paragraphs with level 0
//   - setLink: link the selection, or the link around the cursor
//   - unsetLink: remove the link around the selection or cursor
//
// # Registry
//
// A Registry maps command names to factories taking one string argument,
// so that commands can be invoked from configuration or the command line:
//
//	r := commands.DefaultRegistry()
//	err := r.Execute(e, "toggleMark", "bold")
package commands
