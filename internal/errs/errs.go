// Package errs provides the structured error type shared across services.
package errs

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind uint8

const (
	// KindUnknown is for unclassified errors.
	KindUnknown Kind = iota

	// KindValidation is for invalid input data; logged and skipped, never retried.
	KindValidation

	// KindRequest is for malformed caller requests (bad JSON, bad parameters).
	KindRequest

	// KindNotFound is for missing documents.
	KindNotFound

	// KindStorage is for query/write failures against the store; retryable by the caller.
	KindStorage

	// KindTimeout is for deadline expiry on store calls; a retryable storage failure.
	KindTimeout

	// KindConflict is for failed conditional updates (lost a compare-and-swap race).
	KindConflict
)

// Error carries a kind, a human-readable message and an optional wrapped cause.
type Error struct {
	kind Kind
	msg  string
	orig error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.orig }

// Kind returns the error's kind.
func (e *Error) Kind() Kind { return e.kind }

// New returns a new *Error with the given kind and message.
func New(kind Kind, msg string) error { return &Error{kind: kind, msg: msg} }

// Newf returns a new *Error with the given kind and formatted message.
func Newf(kind Kind, format string, a ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with kind and message.
func Wrap(orig error, kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with kind and formatted message.
func Wrapf(orig error, kind Kind, format string, a ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...), orig: orig}
}

// As unwraps and returns (*Error, true) if err is one of ours.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf extracts the Kind from any error, defaulting to KindUnknown.
// It walks the wrap chain, so a KindConflict wrapped in a KindStorage
// reports KindStorage (the outermost classification wins).
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// HTTPStatus maps any error to an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindRequest, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindStorage, KindTimeout, KindUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
