package state

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	// ErrVetoed indicates a plugin filter rejected a transaction. A veto is
	// expected control flow, not a failure.
	ErrVetoed = errors.New("transaction vetoed")

	// ErrStaleTransaction indicates a transaction was built against a
	// different document than the current one.
	ErrStaleTransaction = errors.New("transaction built against a stale document")

	// ErrDuplicatePlugin indicates two plugins share a key.
	ErrDuplicatePlugin = errors.New("duplicate plugin key")

	// ErrInvalidDocument indicates the initial document violates the schema.
	ErrInvalidDocument = errors.New("invalid document")
)

// VetoError names the plugin that vetoed a transaction.
type VetoError struct {
	Plugin string
}

// Error implements the error interface.
func (e *VetoError) Error() string {
	return fmt.Sprintf("transaction vetoed by %s", e.Plugin)
}

// Is makes VetoError match ErrVetoed.
func (e *VetoError) Is(target error) bool {
	return target == ErrVetoed
}
