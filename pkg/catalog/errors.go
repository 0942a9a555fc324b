package catalog

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError names the field that made a write invalid.
type ValidationError struct {
	Kind   string
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid %s: %s %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s %s", e.Kind, e.ID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is the constructor validators use; the Store fills Kind and ID.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Required is Invalid(field, "is required").
func Required(field string) *ValidationError {
	return Invalid(field, "is required")
}

func withSubject(err error, kind, id string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		cp := *ve
		cp.Kind = kind
		cp.ID = id
		return &cp
	}
	return &ValidationError{Kind: kind, ID: id, Field: "record", Reason: err.Error()}
}
