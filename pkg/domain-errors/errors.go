// Package domainerrors carries coded errors across service boundaries.
//
// Services return *Error values; transports map the Code to a status
// (see pkg/platform/httputil). Field-level validation problems travel in
// Fields so a caller can report every violation at once.
package domainerrors

import (
	"errors"
	"strings"
)

// Code classifies a domain error.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeUnavailable  Code = "unavailable"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+" "+f.Message)
		}
		return e.Message + ": " + strings.Join(parts, "; ")
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// NewValidation creates a validation error listing every offending field.
func NewValidation(msg string, fields []FieldError) *Error {
	return &Error{Code: CodeValidation, Message: msg, Fields: fields}
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// GetCode returns the code of the first *Error in err's chain, or CodeInternal.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldsOf returns the field violations carried by err, if any.
func FieldsOf(err error) []FieldError {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}
