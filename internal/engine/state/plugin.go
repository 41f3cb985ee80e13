package state

import (
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/transform"
)

// Plugin is a unit of the dispatch pipeline. It owns one state value that
// is threaded through every accepted transaction by Apply.
type Plugin interface {
	// Key identifies the plugin and its state field. Keys must be unique
	// within one State.
	Key() string

	// Init returns the initial plugin state for a new editor state.
	Init(doc *model.Node, sel transform.Selection) any

	// Apply computes the plugin state after tr from the previous value.
	// oldState is the state before tr; newState is the state being built,
	// with the document, selection and the fields of earlier plugins
	// already updated.
	Apply(tr *transform.Transaction, value any, oldState, newState *State) any

	// FilterTransaction returns false to veto tr.
	FilterTransaction(tr *transform.Transaction, s *State) bool

	// AppendTransaction may return a follow-up transaction built against
	// newState.Doc(). trs holds the transactions accepted so far in this
	// dispatch.
	AppendTransaction(trs []*transform.Transaction, oldState, newState *State) *transform.Transaction
}

// Normalizer is implemented by plugins that need to fix up a document when a
// state is created, before any user transaction.
type Normalizer interface {
	Normalize(s *State) *transform.Transaction
}

// BasePlugin implements Plugin with no-op behavior. Embed it and override
// the methods a plugin needs.
type BasePlugin struct {
	Name string
}

// Key implements Plugin.
func (p BasePlugin) Key() string { return p.Name }

// Init implements Plugin.
func (p BasePlugin) Init(*model.Node, transform.Selection) any { return nil }

// Apply implements Plugin.
func (p BasePlugin) Apply(_ *transform.Transaction, value any, _, _ *State) any { return value }

// FilterTransaction implements Plugin.
func (p BasePlugin) FilterTransaction(*transform.Transaction, *State) bool { return true }

// AppendTransaction implements Plugin.
func (p BasePlugin) AppendTransaction([]*transform.Transaction, *State, *State) *transform.Transaction {
	return nil
}
