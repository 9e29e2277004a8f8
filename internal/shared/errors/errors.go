// Package errors provides application-level error types and utilities.
// Besides the HTTP-facing kinds it defines the sync kinds: unauthorized channel,
// not a form, mapping not found, upstream failure and store failure.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation_error"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeInternal        ErrorType = "internal_error"
	ErrorTypeBadRequest      ErrorType = "bad_request"
	ErrorTypeUnavailable     ErrorType = "service_unavailable"
	ErrorTypeNotAForm        ErrorType = "not_a_form"
	ErrorTypeMappingNotFound ErrorType = "mapping_not_found"
	ErrorTypeUpstream        ErrorType = "upstream_failure"
	ErrorTypeStore           ErrorType = "store_failure"
)

// AppError represents an application error with additional context
type AppError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"-"`
	Err       error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

func firstDetail(details []string) string {
	if len(details) > 0 {
		return details[0]
	}
	return ""
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    http.StatusBadRequest,
		Details: firstDetail(details),
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
		Details: firstDetail(details),
	}
}

// NewUnauthorizedError creates a new unauthorized error. The sync engine uses it
// for events from channels that are not on the allowlist.
func NewUnauthorizedError(message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
		Code:    http.StatusUnauthorized,
		Details: firstDetail(details),
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Code:    http.StatusInternalServerError,
		Details: firstDetail(details),
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeBadRequest,
		Message: message,
		Code:    http.StatusBadRequest,
		Details: firstDetail(details),
	}
}

// NewUnavailableError creates an error for a feature that is not configured.
func NewUnavailableError(message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnavailable,
		Message: message,
		Code:    http.StatusServiceUnavailable,
		Details: firstDetail(details),
	}
}

// NewNotAFormError reports a message without any recognizable label/value pair.
func NewNotAFormError(message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotAForm,
		Message: message,
		Code:    http.StatusUnprocessableEntity,
		Details: firstDetail(details),
	}
}

// NewMappingNotFoundError reports a thread or ticket with no correlation.
// Callers treat it as a no-op signal.
func NewMappingNotFoundError(message string, details ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeMappingNotFound,
		Message: message,
		Code:    http.StatusNotFound,
		Details: firstDetail(details),
	}
}

// NewUpstreamError wraps a failed call to the chat or ticketing API.
func NewUpstreamError(message string, cause error, retryable bool) *AppError {
	return &AppError{
		Type:      ErrorTypeUpstream,
		Message:   message,
		Code:      http.StatusBadGateway,
		Retryable: retryable,
		Err:       cause,
	}
}

// NewStoreError wraps a failed mapping store operation.
func NewStoreError(message string, cause error) *AppError {
	return &AppError{
		Type:      ErrorTypeStore,
		Message:   message,
		Code:      http.StatusInternalServerError,
		Retryable: true,
		Err:       cause,
	}
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func isType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

func IsUnauthorized(err error) bool {
	return isType(err, ErrorTypeUnauthorized)
}

func IsNotAForm(err error) bool {
	return isType(err, ErrorTypeNotAForm)
}

func IsMappingNotFound(err error) bool {
	return isType(err, ErrorTypeMappingNotFound)
}

func IsUpstreamFailure(err error) bool {
	return isType(err, ErrorTypeUpstream)
}

func IsStoreFailure(err error) bool {
	return isType(err, ErrorTypeStore)
}

// IsRetryable reports whether the outermost AppError in the chain is marked retryable.
func IsRetryable(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Retryable
}
