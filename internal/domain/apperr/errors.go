package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies workflow failures.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindUnauthorized      Kind = "unauthorized"
	KindInvalidTransition Kind = "invalid_transition"
	KindInvalidState      Kind = "invalid_state"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("not authorized")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidState      = errors.New("invalid state")
)

var sentinels = map[Kind]error{
	KindValidation:        ErrValidation,
	KindNotFound:          ErrNotFound,
	KindUnauthorized:      ErrUnauthorized,
	KindInvalidTransition: ErrInvalidTransition,
	KindInvalidState:      ErrInvalidState,
}

// Error is a typed workflow failure surfaced to callers.
type Error struct {
	Kind    Kind
	Entity  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = sentinels[e.Kind].Error()
	}
	if e.Entity != "" {
		msg = e.Entity + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

func newError(kind Kind, entity, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

func Validation(entity, format string, args ...interface{}) error {
	return newError(KindValidation, entity, format, args...)
}

func NotFound(entity string, id int64) error {
	return newError(KindNotFound, entity, "%d not found", id)
}

func Unauthorized(entity, action string) error {
	return newError(KindUnauthorized, entity, "actor may not %s", action)
}

func InvalidTransition(entity string, from, to string) error {
	return newError(KindInvalidTransition, entity, "cannot move from %s to %s", from, to)
}

func InvalidState(entity, format string, args ...interface{}) error {
	return newError(KindInvalidState, entity, format, args...)
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, entity string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Entity: entity, Err: err}
}

// KindOf returns the kind of err, or "" if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Reason returns the short failure reason reported for bulk items.
func Reason(err error) string {
	switch KindOf(err) {
	case KindValidation:
		return "validation failed"
	case KindNotFound:
		return "not found"
	case KindUnauthorized:
		return "not authorized"
	case KindInvalidTransition:
		return "invalid transition"
	case KindInvalidState:
		return "invalid state"
	default:
		return "internal error"
	}
}
