package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResult is matched by every result validation failure.
	ErrInvalidResult = errors.New("invalid search result")

	// ErrUnrecognizedLocation is returned for a location variant outside the closed set.
	ErrUnrecognizedLocation = errors.New("unrecognized location kind")
)

// ValidationError reports a malformed result at a position in a result set.
type ValidationError struct {
	// Index is the position of the offending result, or -1 when validated alone.
	Index int
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", ErrInvalidResult, e.Err)
	}
	return fmt.Sprintf("%s at index %d: %v", ErrInvalidResult, e.Index, e.Err)
}

// Unwrap exposes both ErrInvalidResult and the underlying cause.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrInvalidResult, e.Err}
}
