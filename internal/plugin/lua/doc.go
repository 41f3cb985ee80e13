// Package lua lets users extend the editing pipeline with Lua scripts.
//
// Scripts run in a sandboxed gopher-lua state: only the base, table, string
// and math libraries are opened, file loading functions are removed, and
// every call runs under a timeout.
//
// # State
//
//	state, err := lua.NewState(lua.WithExecutionTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//	defer state.Close()
//
// # Script plugins
//
// A ScriptPlugin is a pipeline plugin backed by a script. A script may
// define either hook:
//
//	-- Veto a transaction by returning false.
//	function filter_transaction(tr)
//	    return tr.first_type == "heading"
//	end
//
//	-- Placeholder text for an empty node, or nil for the default.
//	function placeholder(node_type, pos, has_anchor)
//	    if node_type == "heading" then return "Untitled" end
//	end
//
// The transaction table passed to filter_transaction has the fields
// doc_changed, step_count, text, before_text, first_type and meta.
// Script errors are logged and the transaction is allowed.
package lua
