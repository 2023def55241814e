package trade

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors so the transport layer can map them to a
// status code without inspecting messages.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindForbidden     Kind = "FORBIDDEN"
	KindConflict      Kind = "CONFLICT"
	KindQuotaExceeded Kind = "QUOTA_EXCEEDED"
)

// Error is the result type returned by every engine operation that rejects a
// call. The message is safe to surface to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func NotFoundf(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func Forbiddenf(format string, args ...interface{}) *Error {
	return newError(KindForbidden, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

func QuotaExceededf(format string, args ...interface{}) *Error {
	return newError(KindQuotaExceeded, format, args...)
}

// KindOf extracts the kind of an engine error, or "" for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
