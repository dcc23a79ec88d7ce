// Package apperror defines the typed failures returned by the domain and
// application layers. The transport layer maps a Kind to a protocol status;
// nothing in here knows about HTTP.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an expected failure.
type Kind string

const (
	KindValidation             Kind = "validation_error"
	KindConflict               Kind = "conflict"
	KindUnauthorized           Kind = "unauthorized"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindNotFound               Kind = "not_found"
	KindInternal               Kind = "internal"
)

// Error is the single failure type crossing the application boundary.
type Error struct {
	Kind     Kind
	Message  string
	Messages []string

	// Set only for KindInvalidStateTransition.
	Current   string
	Attempted string

	// Set only for KindInternal. Never rendered by Error().
	cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindValidation:
		return strings.Join(e.Messages, "; ")
	case KindInvalidStateTransition:
		return fmt.Sprintf("cannot perform '%s' when status is '%s'", e.Attempted, e.Current)
	case KindInternal:
		return "internal error"
	}
	return e.Message
}

// Unwrap exposes the cause of an internal error to server-side logging.
func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same Kind, so callers can write
// errors.Is(err, apperror.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && len(t.Messages) == 0
}

// Kind sentinels for errors.Is.
var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrConflict               = &Error{Kind: KindConflict}
	ErrUnauthorized           = &Error{Kind: KindUnauthorized}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrInternal               = &Error{Kind: KindInternal}
)

// Validation builds a validation failure from one or more messages.
func Validation(messages ...string) *Error {
	msgs := make([]string, 0, len(messages))
	for _, m := range messages {
		if m != "" {
			msgs = append(msgs, m)
		}
	}
	return &Error{Kind: KindValidation, Message: "validation failed", Messages: msgs}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// InvalidTransition reports an action rejected by the current state.
func InvalidTransition(current, attempted string) *Error {
	return &Error{
		Kind:      KindInvalidStateTransition,
		Message:   "invalid state transition",
		Current:   current,
		Attempted: attempted,
	}
}

// Internal hides cause behind an opaque message.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", cause: cause}
}

// KindOf returns the Kind of err, or KindInternal for anything that is not
// an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
