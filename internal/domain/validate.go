package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// resultValidate is the shared validator instance; it caches struct metadata.
var resultValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the result against the location model invariants.
func (r Result) Validate() error {
	if err := r.validate(); err != nil {
		return &ValidationError{Index: -1, Err: err}
	}
	return nil
}

// ValidateAll checks every result and reports the first malformed one.
func ValidateAll(results []Result) error {
	for i, r := range results {
		if err := r.validate(); err != nil {
			return &ValidationError{Index: i, Err: err}
		}
	}
	return nil
}

func (r Result) validate() error {
	if err := resultValidate.Struct(r); err != nil {
		return fmt.Errorf("matched value: %w", err)
	}
	switch loc := r.Location.(type) {
	case nil:
		return errors.New("location is required")
	case *ClassLocation:
		if loc == nil {
			return errors.New("class location is nil")
		}
		return resultValidate.Struct(loc)
	case *FileLocation:
		if loc == nil {
			return errors.New("file location is nil")
		}
		return resultValidate.Struct(loc)
	default:
		return fmt.Errorf("%w: %T", ErrUnrecognizedLocation, loc)
	}
}
