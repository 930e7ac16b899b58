package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput means no text, image or audio was supplied.
	ErrEmptyInput = errors.New("extract: text, image or audio input is required")

	// ErrNoCategories means the user has no categories to classify into.
	ErrNoCategories = errors.New("extract: at least one category is required")
)

// ValidationError means the model response failed the extraction contract.
// It is safe to show the user a "didn't understand" message and let them
// rephrase.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %v", e.Reason, e.Err)
	}
	return "extract: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ServiceError means the model call itself failed (transport, quota, API).
// Callers show a generic retry message and must not surface the provider
// error text.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("extract: model call failed: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func validationErr(reason string, err error) error {
	return &ValidationError{Reason: reason, Err: err}
}
