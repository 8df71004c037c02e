package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInterviewNotFound is returned when no interview matches the request.
	ErrInterviewNotFound = errors.New("interview not found")
	// ErrInterviewCompleted is returned when the user's latest interview
	// already has feedback attached.
	ErrInterviewCompleted = errors.New("latest interview already has feedback")
)

// ValidationError reports a request that failed input validation.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "invalid request"
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Fields returns the per-field validation failures, if any.
func (e *ValidationError) Fields() validator.ValidationErrors {
	var fields validator.ValidationErrors
	if errors.As(e.Err, &fields) {
		return fields
	}
	return nil
}

// GenerationError wraps a failed call to the generative-text endpoint or an
// unusable answer from it.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failed write or read against the record store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func newValidationError(err error) error {
	return &ValidationError{Err: err}
}
