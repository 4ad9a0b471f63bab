package store

import (
	"errors"
	"fmt"
)

// Kind classifies a store failure independently of the backend that produced it.
type Kind uint8

// Store error kinds.
const (
	KindNotFound Kind = iota + 1
	KindAlreadyExists
	KindInvalidInput
)

// Error is a backend-neutral persistence error.
// Adapters translate driver errors (sql.ErrNoRows, badger.ErrKeyNotFound,
// mongo duplicate keys) into one of the sentinels below.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Message: msg, Err: e.Err}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "record not found"}
	ErrAlreadyExists = &Error{Kind: KindAlreadyExists, Message: "record already exists"}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput, Message: "invalid input"}
)
