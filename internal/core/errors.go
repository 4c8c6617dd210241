package core

import (
	"errors"
	"fmt"
	"strings"
)

var errEmptyDate = errors.New("empty date")

// ValidationError reports user input that failed a required-field or type
// check. Nothing is written when one is returned.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + " " + e.Msg
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	if errors.As(err, &validationError) {
		return true
	}
	var validationErrors *ValidationErrors
	return errors.As(err, &validationErrors)
}

// ValidationErrors collects every failed check of one input.
type ValidationErrors struct {
	Errors []error
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (ve *ValidationErrors) Add(err error) {
	ve.Errors = append(ve.Errors, err)
}

// Unwrap lets errors.As reach the individual *ValidationError values.
func (ve *ValidationErrors) Unwrap() []error {
	return ve.Errors
}

// ErrOrNil returns nil when nothing was collected.
func (ve *ValidationErrors) ErrOrNil() error {
	if len(ve.Errors) == 0 {
		return nil
	}
	return ve
}

// PersistenceError is returned when the store rejects a write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

func IsPersistenceError(err error) bool {
	var persistenceError *PersistenceError
	return errors.As(err, &persistenceError)
}

// CalendarParseError means a stored date string is not a valid calendar day.
type CalendarParseError struct {
	Value string
	Err   error
}

func (e *CalendarParseError) Error() string {
	return fmt.Sprintf("invalid calendar date %q: %v", e.Value, e.Err)
}

func (e *CalendarParseError) Unwrap() error {
	return e.Err
}

func IsCalendarParseError(err error) bool {
	var calendarParseError *CalendarParseError
	return errors.As(err, &calendarParseError)
}
