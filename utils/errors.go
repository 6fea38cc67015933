package utils

import (
	"errors"
	"net/http"
)

// ErrorKind classifies failures so the HTTP layer can pick a status code.
type ErrorKind int

const (
	KindServer ErrorKind = iota
	KindNotFound
	KindInvalidCredentials
	KindInvalidState
	KindInvalidInput
	KindUnauthorized
	KindForbidden
	KindConflict
)

// HTTPStatus maps the kind to a response status.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidCredentials, KindInvalidState, KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError is an error with a user-facing message.
// Key is an optional message key understood by the front end.
type AppError struct {
	Kind    ErrorKind
	Message string
	Key     string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithKey returns a copy of e carrying a front end message key.
func (e *AppError) WithKey(key string) *AppError {
	c := *e
	c.Key = key
	return &c
}

func NotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func InvalidCredentials(msg string) *AppError {
	return &AppError{Kind: KindInvalidCredentials, Message: msg}
}

func InvalidState(msg string) *AppError {
	return &AppError{Kind: KindInvalidState, Message: msg}
}

func InvalidInput(msg string) *AppError {
	return &AppError{Kind: KindInvalidInput, Message: msg}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func Conflict(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

// ServerError wraps an unexpected failure. The cause is kept for logging
// and never shown to clients.
func ServerError(err error) *AppError {
	return &AppError{Kind: KindServer, Message: "Server Error", Err: err}
}

// AsAppError returns err as an *AppError, wrapping unknown errors as server errors.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ServerError(err)
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
