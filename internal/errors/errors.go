package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a timeline error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"  // 409
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// TimelineError represents a structured error with code, status, and details.
type TimelineError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *TimelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *TimelineError {
	return &TimelineError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidEvent creates a 400 error listing every validation problem.
func NewInvalidEvent(problems []string) *TimelineError {
	return &TimelineError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: fmt.Sprintf("invalid event: %v", problems),
		Details: map[string]any{"problems": problems},
	}
}

// NewNotFound creates a 404 error for when an event cannot be found.
func NewNotFound(id string) *TimelineError {
	return &TimelineError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("event not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *TimelineError {
	return &TimelineError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewAlreadyExists creates a 409 error for id collisions.
func NewAlreadyExists(id string) *TimelineError {
	return &TimelineError{
		Code:    ErrAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("event with id %q already exists", id),
		Details: map[string]any{"id": id},
	}
}

// NewCancelled creates a 499 error for operations aborted by their context.
func NewCancelled(err error) *TimelineError {
	msg := "operation cancelled"
	if err != nil {
		msg = fmt.Sprintf("operation cancelled: %v", err)
	}
	return &TimelineError{
		Code:    ErrCancelled,
		Status:  499,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *TimelineError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &TimelineError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a TimelineError with the given code.
func Is(err error, code ErrorCode) bool {
	var tErr *TimelineError
	if stderrors.As(err, &tErr) {
		return tErr.Code == code
	}
	return false
}
