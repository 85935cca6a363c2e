// Package services holds the friend relationship engine, the engagement
// notifier and the content rules that sit between handlers and repositories.
package services

import (
	"errors"
	"fmt"

	"github.com/anonto42/friendcircle/backend/internal/repositories"
)

// Kind classifies an application error.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidOperation
	KindConflict
	KindUnauthorized
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidOperation:
		return "invalid operation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindStorage:
		return "storage error"
	default:
		return "unknown"
	}
}

// Error is returned by every service operation that fails.
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

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict) works
// regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidOperation = &Error{Kind: KindInvalidOperation}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrStorage          = &Error{Kind: KindStorage}
)

func notFound(msg string) error         { return &Error{Kind: KindNotFound, Message: msg} }
func invalidOperation(msg string) error { return &Error{Kind: KindInvalidOperation, Message: msg} }
func conflict(msg string) error         { return &Error{Kind: KindConflict, Message: msg} }
func unauthorized(msg string) error     { return &Error{Kind: KindUnauthorized, Message: msg} }

// storage wraps a repository failure. repositories.ErrNotFound becomes a
// NotFound with the given subject.
func storage(subject string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound(subject + " not found")
	}
	return &Error{Kind: KindStorage, Message: "failed to access " + subject, Err: err}
}

// KindOf returns the kind of err, or KindStorage for errors outside the taxonomy.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}
