package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// unavailable is returned when a dependency is not ready to serve yet (eg. the clock was never synced).
type unavailable struct {
	message string
}

func NewUnavailableError(msg string) error {
	return &unavailable{message: msg}
}

func (u unavailable) Error() string {
	return u.message
}

func IsUnavailable(err error) bool {
	_, ok := errors.Cause(err).(*unavailable)
	return ok
}
