// Package errors provides the JSON error envelope returned by the HTTP API.
package errors

import (
	"fmt"
	"net/http"
)

// APIError is the wire shape of every failed request: {status, message, errorCode}.
type APIError struct {
	// Status is the HTTP status code for this occurrence.
	Status int `json:"status"`
	// Message is a human-readable explanation of the failure.
	Message string `json:"message"`
	// ErrorCode is the machine-readable code clients switch on.
	ErrorCode string `json:"errorCode"`
	// Details holds additional problem-specific properties.
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// WithMessage returns a copy with the given message.
func (e APIError) WithMessage(message string) APIError {
	e.Message = message
	return e
}

// WithDetail returns a copy with an additional detail property.
func (e APIError) WithDetail(key string, value any) APIError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// Machine-readable error codes.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeValidation        = "VALIDATION_ERROR"
	CodeBadRequest        = "BAD_REQUEST"
	CodeUnauthorized      = "AUTHENTICATION_REQUIRED"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeTooManyRequests   = "TOO_MANY_REQUESTS"
	CodeInternal          = "INTERNAL_ERROR"
	CodeBulkUpdateFailed  = "BULK_UPDATE_FAILED"
	CodeNotEntitled       = "NOT_ENTITLED"
	CodeVerificationError = "VERIFICATION_FAILED"
)

// Pre-defined templates for the error taxonomy.
var (
	// ErrNotFound indicates the requested resource was not found (or is not visible to the caller).
	ErrNotFound = APIError{
		Status:    http.StatusNotFound,
		Message:   "resource not found",
		ErrorCode: CodeNotFound,
	}

	// ErrInvalidStatus indicates a status value outside its enumeration.
	ErrInvalidStatus = APIError{
		Status:    http.StatusBadRequest,
		Message:   "invalid status value",
		ErrorCode: CodeInvalidStatus,
	}

	// ErrValidation indicates the request body failed validation.
	ErrValidation = APIError{
		Status:    http.StatusBadRequest,
		Message:   "validation failed",
		ErrorCode: CodeValidation,
	}

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = APIError{
		Status:    http.StatusBadRequest,
		Message:   "bad request",
		ErrorCode: CodeBadRequest,
	}

	// ErrUnauthorized indicates missing or invalid authentication.
	ErrUnauthorized = APIError{
		Status:    http.StatusUnauthorized,
		Message:   "authentication required",
		ErrorCode: CodeUnauthorized,
	}

	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = APIError{
		Status:    http.StatusForbidden,
		Message:   "forbidden",
		ErrorCode: CodeForbidden,
	}

	// ErrConflict indicates a conflict with the current state.
	ErrConflict = APIError{
		Status:    http.StatusConflict,
		Message:   "conflict",
		ErrorCode: CodeConflict,
	}

	// ErrTooManyRequests indicates a rate or cooldown limit was hit.
	ErrTooManyRequests = APIError{
		Status:    http.StatusTooManyRequests,
		Message:   "too many requests",
		ErrorCode: CodeTooManyRequests,
	}

	// ErrInternal indicates an unexpected persistence or storage failure.
	ErrInternal = APIError{
		Status:    http.StatusInternalServerError,
		Message:   "internal server error",
		ErrorCode: CodeInternal,
	}
)

// NewValidationError creates a validation error with field-level details.
func NewValidationError(fieldErrors map[string]string) APIError {
	return ErrValidation.WithDetail("fields", fieldErrors)
}

// NewNotFoundError creates a not found error for a specific resource.
func NewNotFoundError(resourceType string, identifier any) APIError {
	return ErrNotFound.
		WithMessage(fmt.Sprintf("%s '%v' not found", resourceType, identifier)).
		WithDetail("resourceType", resourceType)
}
