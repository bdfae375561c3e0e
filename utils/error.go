package utils

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorKind classifies engine failures so handlers can map them to HTTP codes
// without leaking raw store errors to clients.
type ErrorKind int

const (
	ErrorKindValidation ErrorKind = iota
	ErrorKindNotFound
	ErrorKindConflict
	ErrorKindUpstream
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Validationf(format string, args ...any) error {
	return &AppError{Kind: ErrorKindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &AppError{Kind: ErrorKindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &AppError{Kind: ErrorKindConflict, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a store/infrastructure failure. The wrapped error is kept for
// logs; clients only ever see the generic message.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Kind: ErrorKindUpstream, Message: "upstream store unavailable", Err: err}
}

func KindOf(err error) (ErrorKind, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	if errors.Is(err, ErrorRecordNotFound) {
		return ErrorKindNotFound, true
	}
	return 0, false
}

// HTTPStatus maps an error to its response code. Unknown errors are treated as
// upstream failures.
func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusBadGateway
	}
	switch kind {
	case ErrorKindValidation:
		return http.StatusBadRequest
	case ErrorKindNotFound:
		return http.StatusNotFound
	case ErrorKindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// ClientMessage returns the message safe to surface in a JSON error body.
func ClientMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if errors.Is(err, ErrorRecordNotFound) {
		return ErrorRecordNotFound.Error()
	}
	return "internal error"
}
