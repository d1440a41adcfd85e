// Package apperr holds the error taxonomy shared by the reconciliation services.
// Callers check categories with errors.Is against the sentinels.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the id is absent, or present but not in the expected status
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists means a unique natural key is already taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrConflict means the production row targeted by a change has vanished
	ErrConflict = errors.New("conflict")

	// ErrAlreadyRunning means a scrape run is already in progress
	ErrAlreadyRunning = errors.New("scrape run already in progress")

	// ErrExtractionFailure means a source extractor failed for one bank
	ErrExtractionFailure = errors.New("extraction failed")

	// ErrValidation means the input violates a domain rule
	ErrValidation = errors.New("validation failed")
)

// NotFoundError ...
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError ...
func NewNotFoundError(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is ...
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError ...
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError ...
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Is ...
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ExtractionError wraps the failure of one bank's extractor
type ExtractionError struct {
	Bank string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("error scraping %s: %v", e.Bank, e.Err)
}

// Is ...
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailure
}

// Unwrap ...
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// AlreadyExists wraps err so that it matches ErrAlreadyExists
func AlreadyExists(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", what, ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w (%v)", what, ErrAlreadyExists, err)
}
