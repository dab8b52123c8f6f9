// Package services defines the business logic for accepting and listing form
// submissions. This file centralizes the service-level error types so that
// they can be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"strings"
)

// Field-level failure messages.
var (
	// ErrNameRequired is reported when the name is empty after trimming.
	ErrNameRequired = errors.New("name is required")

	// ErrNameTooLong is reported when the stored name would exceed
	// domain.NameMaxLen characters.
	ErrNameTooLong = errors.New("name must be at most 50 characters")

	// ErrEmailRequired is reported when the email is empty after trimming.
	ErrEmailRequired = errors.New("email is required")

	// ErrEmailInvalid is reported when the email does not match an address
	// grammar.
	ErrEmailInvalid = errors.New("email must be a valid email address")
)

// FieldError describes one failing input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
}

// ValidationError is returned by Submit when one or more fields fail
// validation. Nothing is stored when it is returned.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// StorageError wraps a failure of the underlying store. Its message is safe to
// log but must not be returned to clients.
type StorageError struct {
	Op  string // append|list|stats
	Err error
}

func (e *StorageError) Error() string { return "storage " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }
