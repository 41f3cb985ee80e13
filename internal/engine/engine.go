package engine

import (
	"errors"
	"slices"
	"sync"

	"github.com/dshills/scribe/internal/engine/history"
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
	"github.com/dshills/scribe/internal/logging"
	"github.com/dshills/scribe/internal/renderer/decoration"
)

// Engine is the single entry point for editing a document.
// It owns the current state, the undo history and the update listeners.
//
// Engine is safe for concurrent use. Dispatches are serialized; readers see
// the state produced by the last completed dispatch.
type Engine struct {
	mu sync.RWMutex

	state   *state.State
	history *history.History
	plugins []state.Plugin

	decorations decoration.Config
	readOnly    bool
	logger      *logging.Logger

	listenerMu   sync.Mutex
	listeners    map[uint64]UpdateFunc
	nextListener uint64

	// Initial configuration, consumed by New.
	initDoc        *model.Node
	initSelection  transform.Selection
	maxUndoEntries int
}

// Update describes one completed dispatch.
type Update struct {
	Old          *state.State
	New          *state.State
	Transactions []*transform.Transaction
}

// DocChanged reports whether any transaction in u changed the document.
func (u Update) DocChanged() bool {
	for _, tr := range u.Transactions {
		if tr.DocChanged() {
			return true
		}
	}
	return false
}

// UpdateFunc is called after every successful dispatch.
type UpdateFunc func(Update)

// New creates an engine with the given options.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		decorations:    decoration.DefaultConfig(),
		maxUndoEntries: DefaultMaxUndoEntries,
		listeners:      make(map[uint64]UpdateFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithComponent("engine")

	st, err := state.New(state.Config{
		Doc:       e.initDoc,
		Selection: e.initSelection,
		Plugins:   e.plugins,
		Logger:    e.logger,
	})
	if err != nil {
		return nil, err
	}
	e.state = st
	e.history = history.New(e.maxUndoEntries)
	e.initDoc = nil
	return e, nil
}

// ============================================================================
// State Access
// ============================================================================

// State returns the current editor state.
func (e *Engine) State() *state.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Doc returns the current document.
func (e *Engine) Doc() *model.Node {
	return e.State().Doc()
}

// Selection returns the current selection.
func (e *Engine) Selection() transform.Selection {
	return e.State().Selection()
}

// Revision returns the document revision. It increases with every
// accepted transaction that changes the document.
func (e *Engine) Revision() uint64 {
	return e.State().Revision()
}

// Text returns the plain text of the document with blocks separated by
// newlines.
func (e *Engine) Text() string {
	doc := e.Doc()
	return doc.TextBetween(0, doc.ContentSize(), "\n")
}

// ============================================================================
// Dispatch
// ============================================================================

// Dispatch runs tr through the plugin pipeline and makes the result
// current. Vetoed and stale transactions leave the engine unchanged and
// return an error matching ErrVetoed or ErrStaleTransaction.
func (e *Engine) Dispatch(tr *transform.Transaction) error {
	e.mu.Lock()
	u, err := e.dispatchLocked(tr)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.notify(u)
	return nil
}

func (e *Engine) dispatchLocked(tr *transform.Transaction) (Update, error) {
	if tr == nil {
		return Update{}, ErrNilTransaction
	}
	if e.readOnly && tr.DocChanged() {
		return Update{}, ErrReadOnly
	}

	old := e.state
	next, trs, err := old.ApplyTransaction(tr)
	if err != nil {
		switch {
		case errors.Is(err, ErrVetoed):
			e.logger.Debug("dispatch rejected: %v", err)
		default:
			e.logger.Warn("dispatch failed: %v", err)
		}
		return Update{}, err
	}

	e.history.Record(trs, old.Selection())
	e.state = next
	return Update{Old: old, New: next, Transactions: trs}, nil
}

// SetSelection dispatches a selection-only transaction.
func (e *Engine) SetSelection(sel transform.Selection) error {
	e.mu.Lock()
	u, err := e.dispatchLocked(e.state.Tr().SetSelection(sel))
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.notify(u)
	return nil
}

// Load replaces the document and clears the history. Plugins initialize
// and normalize against the new document.
func (e *Engine) Load(doc *model.Node, sel transform.Selection) error {
	e.mu.Lock()
	if e.readOnly {
		e.mu.Unlock()
		return ErrReadOnly
	}
	old := e.state
	next, err := state.New(state.Config{
		Doc:       doc,
		Selection: sel,
		Plugins:   old.Plugins(),
		Logger:    e.logger,
	})
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = next
	e.history.Clear()
	e.mu.Unlock()

	e.notify(Update{Old: old, New: next})
	return nil
}

// Reconfigure replaces the plugin set. Plugins whose key already existed
// keep their value. The document is not normalized.
func (e *Engine) Reconfigure(plugins ...state.Plugin) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := e.state.Reconfigure(plugins)
	if err != nil {
		return err
	}
	e.state = next
	return nil
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo reverts the last recorded edit.
func (e *Engine) Undo() error {
	return e.runHistory(e.history.Undo)
}

// Redo reapplies the last undone edit.
func (e *Engine) Redo() error {
	return e.runHistory(e.history.Redo)
}

func (e *Engine) runHistory(op func(*state.State, history.ApplyFunc) error) error {
	var updates []Update

	e.mu.Lock()
	if e.readOnly {
		e.mu.Unlock()
		return ErrReadOnly
	}
	err := op(e.state, func(tr *transform.Transaction) ([]*transform.Transaction, error) {
		u, err := e.dispatchLocked(tr)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
		return u.Transactions, nil
	})
	e.mu.Unlock()

	for _, u := range updates {
		e.notify(u)
	}
	return err
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	return e.history.CanRedo()
}

// UndoCount returns the number of available undo operations.
func (e *Engine) UndoCount() int {
	return e.history.UndoCount()
}

// RedoCount returns the number of available redo operations.
func (e *Engine) RedoCount() int {
	return e.history.RedoCount()
}

// Group runs fn and records every dispatch it makes as one undo entry.
// If fn fails the group is dropped; its edits stay applied.
func (e *Engine) Group(name string, fn func() error) error {
	return e.history.Transaction(name, fn)
}

// ClearHistory removes all undo/redo history.
func (e *Engine) ClearHistory() {
	e.history.Clear()
}

// ============================================================================
// Decorations
// ============================================================================

// Decorations computes the decorations for the current state.
func (e *Engine) Decorations() *decoration.Set {
	e.mu.RLock()
	st := e.state
	cfg := e.decorations
	cfg.Editable = !e.readOnly
	e.mu.RUnlock()

	return decoration.Compute(st, cfg)
}

// SetDecorationConfig replaces the decoration configuration.
func (e *Engine) SetDecorationConfig(cfg decoration.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.decorations = cfg
}

// ============================================================================
// Listeners
// ============================================================================

// OnUpdate registers fn to run after every successful dispatch, outside
// the engine lock. The returned function unregisters it.
func (e *Engine) OnUpdate(fn UpdateFunc) func() {
	e.listenerMu.Lock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	e.listenerMu.Unlock()

	return func() {
		e.listenerMu.Lock()
		delete(e.listeners, id)
		e.listenerMu.Unlock()
	}
}

func (e *Engine) notify(u Update) {
	e.listenerMu.Lock()
	ids := make([]uint64, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	fns := make([]UpdateFunc, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, e.listeners[id])
	}
	e.listenerMu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

// ============================================================================
// Read-Only Mode
// ============================================================================

// SetReadOnly sets the read-only mode. Selection changes are still
// accepted while read-only.
func (e *Engine) SetReadOnly(readOnly bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readOnly = readOnly
}

// IsReadOnly returns true if the engine is read-only.
func (e *Engine) IsReadOnly() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.readOnly
}
