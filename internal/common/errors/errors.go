// Package errors provides the structured error taxonomy shared by the
// RPC layer, the services and the Zeebe job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Domain errors
const (
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeBusinessRule     ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeInputParsing     ErrorCode = "INPUT_PARSING_FAILED"
)

// Infrastructure errors
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeSearchIndexFailed        ErrorCode = "SEARCH_INDEX_FAILED"
	ErrCodeTimeout                  ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// External collaborator errors. These are recorded and swallowed by the
// operation that triggered them.
const (
	ErrCodeExternalService         ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeEmailDeliveryFailed     ErrorCode = "EMAIL_DELIVERY_FAILED"
	ErrCodeSMSDeliveryFailed       ErrorCode = "SMS_DELIVERY_FAILED"
	ErrCodeScreeningProviderFailed ErrorCode = "SCREENING_PROVIDER_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// Error Constructors
// ==========================

// NewNotFoundError reports a missing entity or one that belongs to another user.
func NewNotFoundError(resource, id string) *StandardError {
	return newError(ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource),
		fmt.Sprintf("%s: %s", strings.ToLower(resource), id),
		false, nil)
}

// NewValidationError reports malformed input rejected before any mutation.
func NewValidationError(message, details string) *StandardError {
	return newError(ErrCodeValidationFailed, message, details, false, nil)
}

// NewBusinessRuleError reports an invalid state transition.
func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details, false, nil)
}

func NewUnauthorizedError(details string) *StandardError {
	return newError(ErrCodeUnauthorized, "Unauthorized", details, false, nil)
}

func NewInputParsingError(err error) *StandardError {
	return newError(ErrCodeInputParsing, "Failed to parse job variables", err.Error(), false, err)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

// NewQueryExecutionFailedError wraps a failed read or update.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed,
		"Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		true, err)
}

func NewDatabaseInsertFailedError(entity string, err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed,
		"Database insert operation failed",
		fmt.Sprintf("entity: %s, error: %s", entity, err.Error()),
		true, err)
}

func NewSearchIndexFailedError(err error) *StandardError {
	return newError(ErrCodeSearchIndexFailed, "Search index operation failed", err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

func NewEmailDeliveryError(details string) *StandardError {
	return newError(ErrCodeEmailDeliveryFailed, "Email delivery failed", details, true, nil)
}

func NewSMSDeliveryError(err error) *StandardError {
	return newError(ErrCodeSMSDeliveryFailed, "SMS delivery failed", err.Error(), true, err)
}

func NewScreeningProviderError(err error) *StandardError {
	return newError(ErrCodeScreeningProviderFailed, "Screening provider call failed", err.Error(), true, err)
}

// ==========================
// Inspection helpers
// ==========================

// As extracts a StandardError from an error chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the error code, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := As(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool     { return CodeOf(err) == ErrCodeNotFound }
func IsValidation(err error) bool   { return CodeOf(err) == ErrCodeValidationFailed }
func IsBusinessRule(err error) bool { return CodeOf(err) == ErrCodeBusinessRule }

// ==========================
// Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a job failure.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeExternalService,
		ErrCodeScreeningProviderFailed:
		return 3

	case ErrCodeTimeout,
		ErrCodeSearchIndexFailed:
		return 2

	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// Error codes are used verbatim as BPMN error codes.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "EMAIL") || strings.Contains(codeStr, "SMS"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "SCREENING") || strings.Contains(codeStr, "EXTERNAL"):
		return "EXTERNAL"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	case code == ErrCodeNotFound || code == ErrCodeBusinessRule || code == ErrCodeUnauthorized:
		return "DOMAIN"
	default:
		return "OTHER"
	}
}
