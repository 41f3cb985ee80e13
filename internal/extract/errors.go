package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrNothingSelected is returned when a selection covers no text block.
	ErrNothingSelected = errors.New("nothing selected")

	// ErrSelectionCollapsed is returned when the selection is empty, either
	// when a session starts or when its response arrives.
	ErrSelectionCollapsed = errors.New("selection collapsed")

	// ErrStaleSnapshot is returned when the document changed while a
	// response was pending. The results are discarded.
	ErrStaleSnapshot = errors.New("document changed since the selection was analyzed")

	// ErrSessionClosed is returned when a session is completed or canceled
	// twice.
	ErrSessionClosed = errors.New("session already closed")

	// ErrExternalService matches every *ServiceError.
	ErrExternalService = errors.New("content generation failed")

	// ErrMalformedMessage is returned for wire messages that cannot be
	// decoded.
	ErrMalformedMessage = errors.New("malformed message")
)

// ServiceError reports a failed or rejected generation request. Message is
// suitable for display.
type ServiceError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("content generation failed: %s: %v", e.Message, e.Err)
	}
	return "content generation failed: " + e.Message
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrExternalService.
func (e *ServiceError) Is(target error) bool { return target == ErrExternalService }

func serviceErrorf(err error, format string, args ...any) *ServiceError {
	return &ServiceError{Message: fmt.Sprintf(format, args...), Err: err}
}
