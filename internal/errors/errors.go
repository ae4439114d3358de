// Package errors provides structured error types for the reloader system.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategorySubmission  ErrorCategory = "SUBMISSION"
	ErrCategoryPolling     ErrorCategory = "POLLING"
	ErrCategoryResultFetch ErrorCategory = "RESULT_FETCH"
	ErrCategoryQuery       ErrorCategory = "QUERY"
	ErrCategoryValidation  ErrorCategory = "VALIDATION"
	ErrCategoryEvent       ErrorCategory = "EVENT"
	ErrCategoryCatalog     ErrorCategory = "CATALOG"
	ErrCategoryStorage     ErrorCategory = "STORAGE"
	ErrCategoryConfig      ErrorCategory = "CONFIG"
	ErrCategoryInternal    ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Submission codes
	CodeSubmitRejected = "SUBMIT_REJECTED"

	// Polling codes
	CodeStatusCheckFailed    = "STATUS_CHECK_FAILED"
	CodePollDeadlineExceeded = "POLL_DEADLINE_EXCEEDED"

	// Result fetch codes
	CodeResultFetchFailed = "RESULT_FETCH_FAILED"

	// Query codes
	CodeQueryFailed      = "QUERY_FAILED"
	CodeQueryCancelled   = "QUERY_CANCELLED"
	CodeUnexpectedStatus = "UNEXPECTED_STATUS"

	// Validation codes
	CodeInvalidAction       = "INVALID_ACTION"
	CodeInvalidPartitionKey = "INVALID_PARTITION_KEY"

	// Event codes
	CodeEventParse = "EVENT_PARSE"

	// Catalog codes
	CodeStatementParse    = "STATEMENT_PARSE"
	CodeExecutionNotFound = "EXECUTION_NOT_FOUND"
	CodeCatalogIO         = "CATALOG_IO"

	// Storage codes
	CodeRegionListFailed      = "REGION_LIST_FAILED"
	CodeLifecycleLookupFailed = "LIFECYCLE_LOOKUP_FAILED"

	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// ReloaderError is the structured error type used throughout the system.
type ReloaderError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *ReloaderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ReloaderError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *ReloaderError) Is(target error) bool {
	var t *ReloaderError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new ReloaderError.
func New(category ErrorCategory, code, message string) *ReloaderError {
	return &ReloaderError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new ReloaderError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *ReloaderError {
	return &ReloaderError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *ReloaderError) WithDetails(details map[string]interface{}) *ReloaderError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var re *ReloaderError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a ReloaderError.
func GetCategory(err error) ErrorCategory {
	var re *ReloaderError
	if errors.As(err, &re) {
		return re.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a ReloaderError.
func GetCode(err error) string {
	var re *ReloaderError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// ExecutionID extracts the execution id attached to a query error chain.
// Returns empty string if none is attached.
func ExecutionID(err error) string {
	var re *ReloaderError
	if errors.As(err, &re) {
		if id, ok := re.Details["execution_id"].(string); ok {
			return id
		}
	}
	return ""
}

// isRetryable determines if an error code is retryable. Service-call
// failures against the catalog or object store may clear on retry;
// terminal query outcomes and validation failures never do.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategorySubmission && code == CodeSubmitRejected:
		return true
	case category == ErrCategoryPolling && code == CodeStatusCheckFailed:
		return true
	case category == ErrCategoryResultFetch && code == CodeResultFetchFailed:
		return true
	case category == ErrCategoryStorage && code == CodeRegionListFailed:
		return true
	case category == ErrCategoryStorage && code == CodeLifecycleLookupFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewSubmissionError(message string, cause error) *ReloaderError {
	return Wrap(ErrCategorySubmission, CodeSubmitRejected, message, cause)
}

func NewPollingError(code, message string, cause error) *ReloaderError {
	return Wrap(ErrCategoryPolling, code, message, cause)
}

func NewResultFetchError(message string, cause error) *ReloaderError {
	return Wrap(ErrCategoryResultFetch, CodeResultFetchFailed, message, cause)
}

func NewQueryFailedError(executionID string) *ReloaderError {
	e := New(ErrCategoryQuery, CodeQueryFailed, fmt.Sprintf("query execution %s failed", executionID))
	return e.WithDetails(map[string]interface{}{"execution_id": executionID})
}

func NewQueryCancelledError(executionID string) *ReloaderError {
	e := New(ErrCategoryQuery, CodeQueryCancelled, fmt.Sprintf("query execution %s was cancelled", executionID))
	return e.WithDetails(map[string]interface{}{"execution_id": executionID})
}

func NewInvalidActionError(action string) *ReloaderError {
	return New(ErrCategoryValidation, CodeInvalidAction, fmt.Sprintf("unknown partition action %q", action))
}

func NewEventParseError(message string, cause error) *ReloaderError {
	return Wrap(ErrCategoryEvent, CodeEventParse, message, cause)
}

func NewCatalogError(code, message string, cause error) *ReloaderError {
	return Wrap(ErrCategoryCatalog, code, message, cause)
}

func NewStorageError(code, message string, cause error) *ReloaderError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewInternalError(message string, cause error) *ReloaderError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}

// IsQueryFailed reports whether the error chain carries a FAILED terminal
// query outcome.
func IsQueryFailed(err error) bool {
	return GetCategory(err) == ErrCategoryQuery && GetCode(err) == CodeQueryFailed
}

// IsQueryCancelled reports whether the error chain carries a CANCELLED
// terminal query outcome.
func IsQueryCancelled(err error) bool {
	return GetCategory(err) == ErrCategoryQuery && GetCode(err) == CodeQueryCancelled
}

// IsEventParse reports whether the error chain is a trigger parse failure.
func IsEventParse(err error) bool {
	return GetCategory(err) == ErrCategoryEvent
}

// IsInvalidAction reports whether the error chain is an unknown-action
// validation failure.
func IsInvalidAction(err error) bool {
	return GetCategory(err) == ErrCategoryValidation && GetCode(err) == CodeInvalidAction
}
