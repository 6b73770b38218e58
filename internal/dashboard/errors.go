package dashboard

import "errors"

// EmptySelectionError means the view needs more input before it can render.
// It is informational: only the current view stops.
type EmptySelectionError struct {
	Prompt string
}

func (e *EmptySelectionError) Error() string { return e.Prompt }

func prompt(msg string) error { return &EmptySelectionError{Prompt: msg} }

// ErrUnknownView is returned for a view name that is not registered.
var ErrUnknownView = errors.New("unknown view")

// ErrUnknownChart is returned for a stock chart name that is not offered.
var ErrUnknownChart = errors.New("unknown stock chart")
