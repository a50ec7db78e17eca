package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for pipeline errors.
type ErrorCode string

// Template error codes
const (
	TEMPLATE_UNKNOWN             ErrorCode = "TEMPLATE_UNKNOWN"
	TEMPLATE_MISSING_PLACEHOLDER ErrorCode = "TEMPLATE_MISSING_PLACEHOLDER"
	TEMPLATE_DUPLICATE           ErrorCode = "TEMPLATE_DUPLICATE"
)

// Scheduler error codes
const (
	SCHED_SUBMIT_FAILED ErrorCode = "SCHED_SUBMIT_FAILED"
	SCHED_POLL_FAILED   ErrorCode = "SCHED_POLL_FAILED"
)

// Pipeline error codes
const (
	STAGE_FAILED    ErrorCode = "STAGE_FAILED"
	LOCAL_IO_FAILED ErrorCode = "LOCAL_IO_FAILED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Journal error codes
const (
	JOURNAL_OPEN_FAILED  ErrorCode = "JOURNAL_OPEN_FAILED"
	JOURNAL_WRITE_FAILED ErrorCode = "JOURNAL_WRITE_FAILED"
)

// PipelineError represents a structured error with error code, message,
// and optional cause. It supports error wrapping for error chain inspection.
type PipelineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a PipelineError with the same Code.
func (e *PipelineError) Is(target error) bool {
	var pipelineErr *PipelineError
	if errors.As(target, &pipelineErr) {
		return e.Code == pipelineErr.Code
	}
	return false
}

// NewError creates a new PipelineError with the given code and message.
func NewError(code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
	}
}

// NewErrorf creates a new PipelineError with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError creates a new PipelineError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsCode reports whether err carries the given error code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Code == code
	}
	return false
}
