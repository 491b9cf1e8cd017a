package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Ledger errors
	ErrInvalidAmount     ErrorCode = "INVALID_AMOUNT"
	ErrInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"

	// Booking and feed errors
	ErrBookingNotFound      ErrorCode = "BOOKING_NOT_FOUND"
	ErrNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"
	ErrInvalidTransition    ErrorCode = "INVALID_TRANSITION"

	// Input errors
	ErrInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// System errors
	ErrCorruptData   ErrorCode = "CORRUPT_DATA"
	ErrStorageError  ErrorCode = "STORAGE_ERROR"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// Error is a coded domain error. Two errors match under errors.Is when
// their codes are equal, so package sentinels can be compared against
// errors carrying a more specific message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new Error with a formatted message
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WrapError wraps an existing error in an Error
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsError checks if any error in err's chain is an Error with a specific code
func IsError(err error, code ErrorCode) bool {
	var e *Error
	if !As(err, &e) {
		return false
	}
	return e.Code == code
}

// As finds the first *Error in err's chain
func As(err error, target **Error) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.As(err, target)
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrInternalError when there is none
func CodeOf(err error) ErrorCode {
	var e *Error
	if As(err, &e) {
		return e.Code
	}
	return ErrInternalError
}
