package transform

import (
	"errors"
	"fmt"
)

// Transform errors.
var (
	// ErrStepFailed indicates a step could not be applied to a document.
	ErrStepFailed = errors.New("step failed")

	// ErrNoNode indicates a step addressed a position holding no node.
	ErrNoNode = errors.New("no node at position")
)

// StepError describes a step that failed to apply.
type StepError struct {
	Step  Step
	Index int
	Err   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Is makes StepError match ErrStepFailed.
func (e *StepError) Is(target error) bool {
	return target == ErrStepFailed
}
