// Package apperr defines the closed error taxonomy shared by every manager.
// Errors are classified once at the manager boundary; the transport layer
// maps kinds to statuses without inspecting causes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindBadRequest is a malformed or missing required input, a caller error.
	KindBadRequest Kind = iota
	// KindNotFound means a referenced entity or blob is absent.
	KindNotFound
	// KindNoContent is a well-formed query that legitimately yields nothing.
	// Distinct from KindNotFound: the subject exists, the result set is empty.
	KindNoContent
	// KindConflict is a uniqueness violation, e.g. a duplicate physical key.
	KindConflict
	// KindForbidden surfaces an authorization denial decided elsewhere.
	KindForbidden
	// KindTransient is a storage or metadata-store I/O failure, safe to retry.
	KindTransient
	// KindInternal is an invariant violation or programming error.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindNotFound:
		return "NOT_FOUND"
	case KindNoContent:
		return "NO_CONTENT"
	case KindConflict:
		return "CONFLICT"
	case KindForbidden:
		return "FORBIDDEN"
	case KindTransient:
		return "TRANSIENT"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus returns the stable status for a kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNoContent:
		return http.StatusNoContent
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a kind, a user-visible message and an optional wrapped cause.
// The cause never reaches a client; only the taxonomy-classified message does.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a classified error without a cause.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error. A nil cause yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind of err; unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified with the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MessageOf returns the user-visible message of err. Unclassified errors get
// a generic message so internals never leak to clients.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
