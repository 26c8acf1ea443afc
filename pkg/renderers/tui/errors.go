package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoOptions is reported when a choice field has nothing to pick from.
	ErrNoOptions = errors.New("tui: field has no options")
)
