package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or chose to
	// leave the wizard. The session stays stored.
	ErrAborted = errors.New("tui: aborted")
	// ErrInvalidChoice is returned when a driver answers a select prompt
	// with an index outside its options.
	ErrInvalidChoice = errors.New("tui: invalid choice")
)
