// Package apperr defines the error taxonomy shared by the progress packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed payloads and routes.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned by stores when a uniqueness constraint rejects a write.
	ErrConflict = errors.New("conflicting write")
	// ErrConfiguration marks unsupported option values such as an unknown summary period.
	ErrConfiguration = errors.New("invalid configuration")
)

// ValidationError identifies the offending field, and index when the field is a sequence element.
type ValidationError struct {
	Field   string
	Index   int
	Message string
}

// NewValidation builds a ValidationError that is not tied to a sequence element.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Index: -1, Message: message}
}

// NewIndexedValidation builds a ValidationError for element idx of a sequence.
func NewIndexedValidation(idx int, field, message string) *ValidationError {
	return &ValidationError{Field: field, Index: idx, Message: message}
}

func (e *ValidationError) Error() string {
	switch {
	case e.Index >= 0 && e.Field != "":
		return fmt.Sprintf("index %d: %s %s", e.Index, e.Field, e.Message)
	case e.Index >= 0:
		return fmt.Sprintf("index %d: %s", e.Index, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s %s", e.Field, e.Message)
	}
	return e.Message
}

// Is lets callers match with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConfigurationError reports an unsupported value for a named option.
type ConfigurationError struct {
	Key   string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported %s %q", e.Key, e.Value)
}

// Is lets callers match with errors.Is(err, ErrConfiguration).
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
