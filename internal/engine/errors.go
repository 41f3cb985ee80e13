package engine

import (
	"errors"

	"github.com/dshills/scribe/internal/engine/history"
	"github.com/dshills/scribe/internal/engine/state"
)

// Errors returned by engine operations.
var (
	// ErrReadOnly indicates a document change was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")

	// ErrNilTransaction indicates Dispatch was called without a transaction.
	ErrNilTransaction = errors.New("nil transaction")

	// ErrVetoed indicates a plugin filter rejected the transaction.
	ErrVetoed = state.ErrVetoed

	// ErrStaleTransaction indicates the transaction was built against an
	// older document.
	ErrStaleTransaction = state.ErrStaleTransaction

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = history.ErrNothingToRedo
)
