package commands

import "errors"

// Errors returned by commands.
var (
	// ErrNotApplicable indicates the command does not apply to the current
	// selection, e.g. toggling a mark on an empty selection.
	ErrNotApplicable = errors.New("command not applicable")

	// ErrInvalidArgument indicates a malformed command argument.
	ErrInvalidArgument = errors.New("invalid command argument")

	// ErrUnknownCommand indicates no command is registered under a name.
	ErrUnknownCommand = errors.New("unknown command")
)
