package core

import "github.com/pkg/errors"

var (
	// ErrUnauthorized is the single cross-cutting 401 signal. Every component
	// routes it to the process-wide unauthorized handler instead of handling
	// it locally.
	ErrUnauthorized = errors.New("unauthorized")

	errInvalidConfig = errors.New("invalid configuration")
)

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

// IsUnauthorized reports whether err (or its cause) is ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Cause(err) == ErrUnauthorized
}
