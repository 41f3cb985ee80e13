package model

import (
	"errors"
	"fmt"
)

// Errors returned by model operations.
var (
	// ErrOutOfRange indicates a position outside [0, size] of the node it was
	// resolved against. It is always a caller bug.
	ErrOutOfRange = errors.New("position out of range")

	// ErrSchemaViolation indicates content that breaks a node's content rule or
	// attribute constraints.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrUnknownType indicates an unknown node or mark type name.
	ErrUnknownType = errors.New("unknown type")
)

func outOfRange(pos, size int) error {
	return fmt.Errorf("%w: %d not in [0, %d]", ErrOutOfRange, pos, size)
}

func schemaErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaViolation, fmt.Sprintf(format, args...))
}
