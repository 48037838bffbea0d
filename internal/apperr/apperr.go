package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for propagation and HTTP mapping.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindConfiguration Kind = "CONFIGURATION"
	KindUpstream      Kind = "UPSTREAM"
	KindTimeout       Kind = "TIMEOUT"
	KindNotFound      Kind = "NOT_FOUND"
	KindInternal      Kind = "INTERNAL"
)

var (
	// ErrTimeout marks a spreadsheet fetch that exceeded its deadline.
	ErrTimeout = errors.New("sheets request timed out")
	// ErrSheetsUnavailable marks a spreadsheet source that refused or failed the request.
	ErrSheetsUnavailable = errors.New("sheets unavailable")
)

// Error is an application error carrying its kind.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

func Configuration(message string) *Error {
	return New(KindConfiguration, message, nil)
}

func NotFound(resource string) *Error {
	return New(KindNotFound, resource+" not found", nil)
}

// Upstream wraps a failure of the spreadsheet source.
func Upstream(message string, err error) *Error {
	if err == nil {
		err = ErrSheetsUnavailable
	}
	return New(KindUpstream, message, err)
}

// Timeout wraps a deadline expiry of the spreadsheet source.
func Timeout(message string) *Error {
	return New(KindTimeout, message, ErrTimeout)
}

func Internal(message string, err error) *Error {
	return New(KindInternal, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, ErrTimeout) {
		return KindTimeout
	}
	if errors.Is(err, ErrSheetsUnavailable) {
		return KindUpstream
	}
	return KindInternal
}

// HTTPStatus maps a kind to the response status used by the API.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
