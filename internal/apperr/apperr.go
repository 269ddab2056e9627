// Package apperr defines the error taxonomy shared by the repository,
// service and handler layers. Every failure that is the caller's concern
// carries a Kind so that transports can map it without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable category of an Error.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"
)

// Error is a categorised, human-readable failure. Errors of the same kind
// and message compare equal through errors.Is so that package level
// sentinels keep working after being wrapped.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is reports whether target is an *Error with the same kind and, when the
// target carries a message, the same message. A target with an empty
// message matches any error of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or missing input.
func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }

// NotFound reports that a referenced entity does not exist.
func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

// Conflict reports a uniqueness or concurrent availability violation.
func Conflict(format string, args ...any) *Error { return newf(KindConflict, format, args...) }

// Forbidden reports an authorization failure.
func Forbidden(format string, args ...any) *Error { return newf(KindForbidden, format, args...) }

// Kind-only targets for errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrForbidden  = &Error{Kind: KindForbidden}
)

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err is nil or carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
