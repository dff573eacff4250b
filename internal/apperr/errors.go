// Package apperr is the error taxonomy shared by every core operation.
//
// Errors carry a Code, the ids that caused them and free-form metadata, so the
// transport layer can tell the caller exactly which input was rejected.
package apperr

import (
	"errors"
	"fmt"
)

// Error is the domain error type.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable message
	IDs      []int64           // Offending entity ids, if any
	Metadata map[string]string // Additional context
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithIDs creates a domain error naming the offending ids.
func WithIDs(code Code, message string, ids ...int64) *Error {
	return &Error{Code: code, Message: message, IDs: ids}
}

// WithMetadata creates a domain error with additional context.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is. They match any error with the same code.
var (
	ErrTenantNotFound           = New(CodeTenantNotFound, "tenant not found")
	ErrLineNotFound             = New(CodeLineNotFound, "line not found")
	ErrMachineNotFound          = New(CodeMachineNotFound, "machine not found")
	ErrShiftNotFound            = New(CodeShiftNotFound, "shift not found")
	ErrAlreadyAssignedElsewhere = New(CodeAlreadyAssignedElsewhere, "machine already assigned to another line")
	ErrLineBusy                 = New(CodeLineBusy, "line is running")
	ErrInvalidState             = New(CodeInvalidState, "line state does not allow operation")
	ErrMachineNameTaken         = New(CodeMachineNameTaken, "machine name already in use")
	ErrNotOwned                 = New(CodeNotOwned, "machine belongs to another mill")
	ErrNotAssigned              = New(CodeNotAssigned, "machine is not assigned to the line")
	ErrInvalidArgument          = New(CodeInvalidArgument, "invalid argument")
	ErrInvalidWindow            = New(CodeInvalidWindow, "invalid date window")
	ErrInvalidGraph             = New(CodeInvalidGraph, "invalid layout graph")
	ErrUnknownMachineType       = New(CodeUnknownMachineType, "unknown machine type")
	ErrMachineTypeNotEnabled    = New(CodeMachineTypeNotEnabled, "machine type not enabled for mill")
	ErrMachineTypeNotInPattern  = New(CodeMachineTypeNotInPattern, "machine type not in line pattern")
	ErrForbidden                = New(CodeForbidden, "forbidden")
)

// CodeOf extracts the code of a domain error; anything else is internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// KindOf extracts the kind of an error.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}
