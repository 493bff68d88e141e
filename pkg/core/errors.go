package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: UNKNOWN_ACTION_TYPE, FRAGMENT_CYCLE, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches another ExecutionError by category and code, so copies made with
// WithMessage/WithCause still match their sentinel.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Outcome converts the error into a failing Outcome tagged by its code.
func (e *ExecutionError) Outcome() Outcome {
	return Fail(fmt.Sprintf("%s: %s", e.Code, e.Error()))
}

// Predefined errors
var (
	// Configuration faults: fatal to the command, never retried
	ErrMissingActionType = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "MISSING_WIDGET_TYPE",
		Message:  "command has no action type",
	}
	ErrUnknownActionType = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "UNKNOWN_ACTION_TYPE",
		Message:  "no handler registered for action type",
	}
	ErrUnknownOperation = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "NO_FUNCTION_FOUND",
		Message:  "handler has no such operation",
	}
	ErrFragmentCycle = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "FRAGMENT_CYCLE",
		Message:  "circular fragment reference",
	}
	ErrFragmentDepth = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "FRAGMENT_DEPTH_EXCEEDED",
		Message:  "fragment nesting too deep",
	}
	ErrFragmentNotFound = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "FRAGMENT_NOT_FOUND",
		Message:  "invalid or missing fragment",
	}
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "INVALID_CONFIG",
		Message:  "invalid configuration",
	}

	// Validation faults: the document never starts executing
	ErrDocumentNotFound = &ExecutionError{
		Category: ErrCategoryValidation,
		Code:     "FILE_NOT_FOUND",
		Message:  "document not found",
	}
	ErrInvalidJSON = &ExecutionError{
		Category: ErrCategoryValidation,
		Code:     "INVALID_JSON",
		Message:  "document is not valid JSON",
	}
	ErrInvalidDocument = &ExecutionError{
		Category: ErrCategoryValidation,
		Code:     "INVALID_DOCUMENT",
		Message:  "document structure is invalid",
	}

	// Unhandled: a handler panicked or the runner hit an unexpected error
	ErrUnexpected = &ExecutionError{
		Category: ErrCategoryUnhandled,
		Code:     "UNEXPECTED_ERROR",
		Message:  "unexpected error",
	}

	ErrDeviceNotFound = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "DRIVER_INSTANCE_NOT_FOUND",
		Message:  "no device session for target",
	}
	ErrServerUnreachable = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "SERVER_UNREACHABLE",
		Message:  "could not connect to automation server",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// CategoryOf returns the category of the first ExecutionError in err's chain.
func CategoryOf(err error) ErrorCategory {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	if err != nil {
		return ErrCategoryUnhandled
	}
	return ErrCategoryNone
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, category ErrorCategory) bool {
	return err != nil && CategoryOf(err) == category
}
