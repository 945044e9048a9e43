// Package errors provides structured application errors for the
// reconciliation service. Errors carry a category, a specific code,
// optional context and a remediation suggestion, and map to process
// exit codes for the CLI.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile           ErrorCategory = "file"
	CategoryParse          ErrorCategory = "parse"
	CategoryValidation     ErrorCategory = "validation"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidData   ErrorCode = "invalid_data"
	CodeRowLimit      ErrorCode = "row_limit_exceeded"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeOutOfRange    ErrorCode = "out_of_range"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"

	// Reconciliation errors
	CodeProcessingError ErrorCode = "processing_error"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReconcilerError is the base error type for all application errors
type ReconcilerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReconcilerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReconcilerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ReconcilerError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReconcilerError) WithContext(key string, value interface{}) *ReconcilerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReconcilerError) WithSuggestion(suggestion string) *ReconcilerError {
	e.Suggestion = suggestion
	return e
}

// stackTracer interface for extracting stack traces from pkg/errors
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new ReconcilerError
func New(category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconcilerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	wrapped := &ReconcilerError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    err,
	}

	if st, ok := errors.WithStack(err).(stackTracer); ok {
		wrapped.StackTrace = st.StackTrace()
	}

	return wrapped
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, cause error) *ReconcilerError {
	e := &ReconcilerError{
		Category: CategoryFile,
		Code:     code,
		Message:  fmt.Sprintf("file error: %s", path),
		Cause:    cause,
	}
	return e.WithContext("path", path)
}

// ParseError creates a parse-related error with file position context
func ParseError(code ErrorCode, path string, line int, field string, cause error) *ReconcilerError {
	e := &ReconcilerError{
		Category: CategoryParse,
		Code:     code,
		Message:  fmt.Sprintf("parse error in %s at line %d", path, line),
		Cause:    cause,
	}
	e.WithContext("path", path).WithContext("line", line)
	if field != "" {
		e.WithContext("field", field)
	}
	return e
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, cause error) *ReconcilerError {
	e := &ReconcilerError{
		Category: CategoryValidation,
		Code:     code,
		Message:  fmt.Sprintf("validation failed for %s", field),
		Cause:    cause,
	}
	e.WithContext("field", field)
	if value != nil {
		e.WithContext("value", value)
	}
	return e
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, cause error) *ReconcilerError {
	e := &ReconcilerError{
		Category: CategoryConfiguration,
		Code:     code,
		Message:  fmt.Sprintf("configuration error: %s", setting),
		Cause:    cause,
	}
	return e.WithContext("setting", setting)
}

// ReconciliationError creates a reconciliation-related error
func ReconciliationError(code ErrorCode, stage string, cause error) *ReconcilerError {
	e := &ReconcilerError{
		Category: CategoryReconciliation,
		Code:     code,
		Message:  fmt.Sprintf("reconciliation failed during %s", stage),
		Cause:    cause,
	}
	return e.WithContext("stage", stage)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, cause error) *ReconcilerError {
	e := &ReconcilerError{
		Category: CategoryInternal,
		Code:     code,
		Message:  fmt.Sprintf("internal error during %s", operation),
		Cause:    cause,
	}
	return e.WithContext("operation", operation)
}

// IsCategory reports whether err is a ReconcilerError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var re *ReconcilerError
	if errors.As(err, &re) {
		return re.Category == category
	}
	return false
}

// GetExitCode extracts an exit code from any error
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var re *ReconcilerError
	if errors.As(err, &re) {
		return re.GetExitCode()
	}

	return 1
}
