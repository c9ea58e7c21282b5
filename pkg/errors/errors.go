package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation is missing or malformed input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound is a referenced account or post that does not exist
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeInvalidOperation is a request the graph rules forbid
	ErrorTypeInvalidOperation ErrorType = "invalid_operation"
	// ErrorTypeUnauthorized is acting without, or outside of, the caller's rights
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	// ErrorTypeConflict is a uniqueness violation such as a taken username
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeInternal is a store or collaborator failure
	ErrorTypeInternal ErrorType = "internal"
)

// BaseError is the error type returned by every service operation
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

func NewValidation(message string) *BaseError {
	return NewBaseError(ErrorTypeValidation, message, nil)
}

func NewNotFound(message string) *BaseError {
	return NewBaseError(ErrorTypeNotFound, message, nil)
}

func NewInvalidOperation(message string) *BaseError {
	return NewBaseError(ErrorTypeInvalidOperation, message, nil)
}

func NewUnauthorized(message string) *BaseError {
	return NewBaseError(ErrorTypeUnauthorized, message, nil)
}

func NewConflict(message string) *BaseError {
	return NewBaseError(ErrorTypeConflict, message, nil)
}

// NewInternal wraps a store or collaborator failure. The message names the
// operation and is kept out of client responses.
func NewInternal(operation string, err error) *BaseError {
	return NewBaseError(ErrorTypeInternal, operation, err)
}

// TypeOf returns the ErrorType of the first BaseError in err's chain.
// Errors outside the taxonomy are internal.
func TypeOf(err error) ErrorType {
	var baseErr *BaseError
	if stderrors.As(err, &baseErr) {
		return baseErr.Type
	}
	return ErrorTypeInternal
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// HTTPStatus maps an error onto the status code returned to clients
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case ErrorTypeValidation, ErrorTypeInvalidOperation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to show a client
func PublicMessage(err error) string {
	var baseErr *BaseError
	if stderrors.As(err, &baseErr) && baseErr.Type != ErrorTypeInternal {
		return baseErr.Message
	}
	return "Internal Server Error"
}
