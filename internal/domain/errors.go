package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error category.
type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeOutOfWindowRecord Code = "OUT_OF_WINDOW_RECORD"
	CodeNegativeImpact    Code = "NEGATIVE_IMPACT"
	CodeInvalidReference  Code = "INVALID_REFERENCE"
	CodeInvalidPeriod     Code = "INVALID_PERIOD"
	CodeValidation        Code = "VALIDATION"
)

// HTTPStatus maps an error code onto the status the REST layer answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidPeriod, CodeValidation, CodeNegativeImpact:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error carrying a Code. Two errors match under errors.Is
// when their codes are equal, so callers compare against the sentinels below.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: err}
}

var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrOutOfWindowRecord = &Error{Code: CodeOutOfWindowRecord, Message: "activity record outside period window"}
	ErrNegativeImpact    = &Error{Code: CodeNegativeImpact, Message: "negative impact value"}
	ErrInvalidReference  = &Error{Code: CodeInvalidReference, Message: "reference instant outside its window"}
	ErrInvalidPeriod     = &Error{Code: CodeInvalidPeriod, Message: "Invalid period type. Use: DAILY, WEEKLY, MONTHLY, YEARLY"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newError(CodeNotFound, format, args...)
}

func OutOfWindowRecord(format string, args ...any) *Error {
	return newError(CodeOutOfWindowRecord, format, args...)
}

func NegativeImpact(format string, args ...any) *Error {
	return newError(CodeNegativeImpact, format, args...)
}

func InvalidReference(format string, args ...any) *Error {
	return newError(CodeInvalidReference, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newError(CodeValidation, format, args...)
}

// CodeOf returns the Code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
