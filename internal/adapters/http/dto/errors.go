// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"context"
	"errors"
	"net/http"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

const (
	// MsgInternal is the only detail shown for unexpected failures.
	MsgInternal = "Internal server error"

	// MsgTimeout is shown when the request deadline expired before a response.
	MsgTimeout = "Request timed out"
)

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	// Code repeats the HTTP status for clients that only read the body.
	Code    int    `json:"code"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response for status.
func NewErrorResponse(status int, message string) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Message: message,
		Code:    status,
	}
}

// WithTraceID adds a trace ID to the error response.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// FromError maps a domain error to an HTTP status and error response.
// Unknown errors are mapped to 500 with a generic message.
func FromError(err error) (int, *ErrorResponse) {
	status := StatusFromError(err)
	switch status {
	case http.StatusInternalServerError:
		return status, NewErrorResponse(status, MsgInternal)
	case http.StatusGatewayTimeout:
		return status, NewErrorResponse(status, MsgTimeout)
	}

	return status, NewErrorResponse(status, errorMessage(err))
}

// StatusFromError maps domain error kinds to HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsConflict(err):
		return http.StatusConflict
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsForbidden(err):
		return http.StatusForbidden
	case domain.IsUnauthorized(err):
		return http.StatusUnauthorized
	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the caller-facing detail of a domain error. Validation
// errors without a field carry a complete sentence and are shown verbatim.
func errorMessage(err error) string {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) && validationErr.Field == "" {
		return validationErr.Message
	}

	return err.Error()
}
