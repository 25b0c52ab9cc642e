package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures surfaced to callers of the core packages.
type ErrorType string

const (
	ErrTypeConnection ErrorType = "connection"
	ErrTypeQuery      ErrorType = "query"
	ErrTypeNotFound   ErrorType = "not_found"
	ErrTypeFormat     ErrorType = "format"
	ErrTypeValidation ErrorType = "validation"
	ErrTypeExport     ErrorType = "export"
	ErrTypeConfig     ErrorType = "config"
	ErrTypeInternal   ErrorType = "internal"
)

// Error is a typed error with an optional cause and user-facing suggestions.
type Error struct {
	Type        ErrorType
	Message     string
	Cause       error
	Suggestions []string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithSuggestion appends a hint for resolving the error.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

func Wrap(err error, errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
	}
}

func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsType reports whether any error in err's chain is an *Error of errType.
func IsType(err error, errType ErrorType) bool {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type == errType
	}

	return false
}

// GetType returns the type of the first *Error in err's chain, or ErrTypeInternal.
func GetType(err error) ErrorType {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type
	}

	return ErrTypeInternal
}
