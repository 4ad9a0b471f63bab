// Package errors provides the coded domain errors surfaced by the catalog API.
//
// Usage:
//
//	// In services - return typed errors
//	if author == nil {
//	    return nil, errors.NotFoundf("author %q not found", name)
//	}
//
//	// At the GraphQL boundary - check with errors.Is
//	if errors.Is(err, errors.ErrNotAuthenticated) {
//	    ...
//	}
//
// Every *Error implements Extensions, so graphql-go renders its code (and the
// offending arguments for invalid input) under the "extensions" key.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes. The GraphQL-facing values follow the Apollo naming clients already expect.
const (
	CodeInvalidInput     Code = "BAD_USER_INPUT"
	CodeNotAuthenticated Code = "UNAUTHENTICATED"
	CodeInvalidToken     Code = "INVALID_TOKEN"
	CodeNotFound         Code = "NOT_FOUND"
	CodeInternal         Code = "INTERNAL_SERVER_ERROR"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNotAuthenticated, CodeInvalidToken:
		return http.StatusUnauthorized
	case CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
// For CodeInvalidInput, Details holds the rejected arguments keyed by name and
// Reasons, when set, says what is wrong with each offending argument.
type Error struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Details any               `json:"details,omitempty"`
	Reasons map[string]string `json:"reasons,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Extensions returns the GraphQL error extensions for this error.
func (e *Error) Extensions() map[string]any {
	ext := map[string]any{"code": string(e.Code)}
	if e.Details != nil {
		ext["invalidArgs"] = e.Details
	}
	if len(e.Reasons) > 0 {
		reasons := make(map[string]any, len(e.Reasons))
		for field, reason := range e.Reasons {
			reasons[field] = reason
		}
		ext["reasons"] = reasons
	}
	return ext
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Reasons: e.Reasons,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrInvalidInput     = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrNotAuthenticated = &Error{Code: CodeNotAuthenticated, Message: "not authenticated"}
	ErrInvalidToken     = &Error{Code: CodeInvalidToken, Message: "invalid token"}
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInternal         = &Error{Code: CodeInternal, Message: "internal error"}
)

// InvalidInput creates an invalid input error carrying the rejected arguments.
func InvalidInput(msg string, args map[string]any) *Error {
	e := &Error{Code: CodeInvalidInput, Message: msg}
	if len(args) > 0 {
		e.Details = args
	}
	return e
}

// NotAuthenticated creates a not authenticated error.
func NotAuthenticated(msg string) *Error {
	return &Error{Code: CodeNotAuthenticated, Message: msg}
}

// InvalidToken creates an invalid token error.
func InvalidToken(msg string) *Error {
	return &Error{Code: CodeInvalidToken, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}
