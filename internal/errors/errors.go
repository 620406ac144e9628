package errors

import (
	"errors"
	"fmt"
	"time"
)

/**
 * Error taxonomy for docextract
 *
 * Engine adapters and the dispatcher never return Go errors for runtime
 * failures. They carry a *ProcessingError inside the result value instead,
 * so one failing back-end cannot abort a multi-engine run.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Input errors
	ErrorNotFound        ErrorCode = "NOT_FOUND"
	ErrorUnsupportedType ErrorCode = "UNSUPPORTED_TYPE"

	// Back-end errors
	ErrorBackendFailure ErrorCode = "BACKEND_FAILURE"
	ErrorParseFailure   ErrorCode = "PARSE_FAILURE"

	// Aggregate status for a file where some engines failed
	ErrorPartialFailure ErrorCode = "PARTIAL_FAILURE"

	// Start-up errors
	ErrorConfigInvalid ErrorCode = "CONFIG_INVALID"
)

// ProcessingError represents a structured processing error
type ProcessingError struct {
	Code      ErrorCode
	Message   string
	Path      string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Text is the message written into result documents.
func (e *ProcessingError) Text() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Factory functions for common errors

func NewNotFoundError(path string) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorNotFound,
		Message:   fmt.Sprintf("File %s does not exist", path),
		Path:      path,
		Timestamp: time.Now(),
	}
}

func NewDirectoryNotFoundError(path string) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorNotFound,
		Message:   fmt.Sprintf("Directory %s does not exist", path),
		Path:      path,
		Timestamp: time.Now(),
	}
}

func NewUnsupportedTypeError(path string, ext string) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorUnsupportedType,
		Message:   fmt.Sprintf("Unsupported file type: %s", ext),
		Path:      path,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"extension": ext,
		},
	}
}

func NewBackendFailureError(engine string, path string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorBackendFailure,
		Message:   fmt.Sprintf("%s failed", engine),
		Path:      path,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"engine": engine,
		},
		Cause: cause,
	}
}

func NewParseFailureError(message string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorParseFailure,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewPartialFailureError(path string, failed []string) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorPartialFailure,
		Message:   fmt.Sprintf("%d engine(s) failed", len(failed)),
		Path:      path,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"failed_engines": failed,
		},
	}
}

func NewConfigInvalidError(message string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorConfigInvalid,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// Wrap converts an arbitrary error into a ProcessingError, keeping the
// code of any ProcessingError already in the chain.
func Wrap(engine string, path string, err error) *ProcessingError {
	if err == nil {
		return nil
	}
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe
	}
	return NewBackendFailureError(engine, path, err)
}

// ToMap converts error to map for result documents
func (e *ProcessingError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Path != "" {
		result["path"] = e.Path
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
