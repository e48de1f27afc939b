// Package apperr defines the structured error type used across the service.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeNotFound      = "NOT_FOUND"
	CodeRoutingError  = "ROUTING_ERROR"      // unrecognized category at a pipeline branch
	CodeCollaborator  = "COLLABORATOR_ERROR" // external completion/embedding/store failure
	CodeDatabaseError = "DATABASE_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
	CodeTimeout       = "TIMEOUT"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// HTTPStatus returns the HTTP status code
func (e *AppError) HTTPStatus() int {
	return e.Status
}

// Constructor functions
func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func NotFound(message string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// Routing reports an unrecognized category reaching a pipeline branch point.
// This indicates a contract violation upstream and is surfaced to the caller.
func Routing(category string) *AppError {
	return &AppError{
		Code:    CodeRoutingError,
		Message: fmt.Sprintf("unknown email category: %s", category),
		Status:  http.StatusBadRequest,
	}
}

// Collaborator wraps a failure of an external service call.
func Collaborator(err error, service string) *AppError {
	return &AppError{
		Code:    CodeCollaborator,
		Message: fmt.Sprintf("%s call failed", service),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

func Database(err error, message string) *AppError {
	return &AppError{
		Code:    CodeDatabaseError,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Internal(err error, message string) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// IsRouting reports whether err is (or wraps) a routing error.
func IsRouting(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeRoutingError
}

// AsAppError extracts an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}
