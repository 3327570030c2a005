// Package errors provides standardized error handling for the dispatch service.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Configuration: fail fast before any processing.
	ErrCodeCronSecretMissing ErrorCode = "CRON_SECRET_MISSING"

	// Authorization: no processing, no log entry.
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrCodeSessionInvalid ErrorCode = "SESSION_INVALID"

	// Validation: rejected request bodies on synchronous routes.
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidReportType  ErrorCode = "INVALID_REPORT_TYPE"
	ErrCodeInvalidMonthFormat ErrorCode = "INVALID_MONTH_FORMAT"

	// Transport: per-recipient send failures, never rethrown past the sender.
	ErrCodeSendFailed ErrorCode = "SEND_FAILED"

	// Store: document-store failures.
	ErrCodeStoreQueryFailed  ErrorCode = "STORE_QUERY_FAILED"
	ErrCodeStoreUpdateFailed ErrorCode = "STORE_UPDATE_FAILED"

	// Unexpected top-level failures.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewCronSecretMissingError signals an unconfigured CRON_SECRET. The cron
// routes surface this as HTTP 500, never as a silent auth bypass.
func NewCronSecretMissingError() *StandardError {
	return &StandardError{
		Code:      ErrCodeCronSecretMissing,
		Message:   "Cron secret is not configured",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError creates a non-retryable authorization error.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Missing or invalid authorization",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionInvalidError creates a non-retryable session error.
func NewSessionInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionInvalid,
		Message:   "Session token is invalid or expired",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidReportTypeError creates a non-retryable report type error.
func NewInvalidReportTypeError(reportType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidReportType,
		Message:   "Unsupported report type",
		Details:   fmt.Sprintf("type: %s", reportType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidMonthFormatError creates a non-retryable monthYear format error.
func NewInvalidMonthFormatError(monthYear string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidMonthFormat,
		Message:   "monthYear must be formatted as YYYY-MM",
		Details:   fmt.Sprintf("monthYear: %s", monthYear),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSendFailedError creates a retryable transport error.
func NewSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSendFailed,
		Message:   "Notification transport call failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreQueryFailedError creates a retryable document-store read error.
func NewStoreQueryFailedError(collection string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreQueryFailed,
		Message:   "Document store query failed",
		Details:   fmt.Sprintf("collection: %s, error: %s", collection, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUpdateFailedError creates a retryable document-store write error.
func NewStoreUpdateFailedError(collection string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUpdateFailed,
		Message:   "Document store update failed",
		Details:   fmt.Sprintf("collection: %s, error: %s", collection, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected top-level failure.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected internal error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
