// Package apperr provides the typed errors that cross the engine boundary.
// Callers map them to HTTP statuses through HTTPStatus.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound: lead, rule or reminder missing.
	KindNotFound
	// KindValidation: invalid input data.
	KindValidation
	// KindAlreadyProcessed: the idempotency guard tripped.
	KindAlreadyProcessed
	// KindTransportFailure: the outbound send attempt failed.
	KindTransportFailure
	// KindUnauthorized: missing or invalid credentials.
	KindUnauthorized
	// KindInternal: unexpected storage or programming error.
	KindInternal
)

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindAlreadyProcessed:
		return http.StatusConflict
	case KindTransportFailure:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp sets the operation that failed.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func AlreadyProcessed(message string) *Error {
	return New(KindAlreadyProcessed, message)
}

func TransportFailure(message string) *Error {
	return New(KindTransportFailure, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// GetKind extracts the kind from anywhere in err's chain.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err carries the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
