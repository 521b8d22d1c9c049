package domain

import (
	"errors"
	"fmt"
)

// Code is the stable, machine-readable identifier of an error kind.
type Code string

const (
	CodeNotFound                Code = "NOT_FOUND"
	CodeOutOfStock              Code = "OUT_OF_STOCK"
	CodeForbidden               Code = "FORBIDDEN"
	CodeAlreadyCancelled        Code = "ALREADY_CANCELLED"
	CodeInvalidSpendingReversal Code = "INVALID_SPENDING_REVERSAL"
	CodeInvalidArgument         Code = "INVALID_ARGUMENT"
	CodeConflict                Code = "CONFLICT"
	CodeStorage                 Code = "STORAGE_ERROR"
)

var (
	ErrNotFound                = &Error{Code: CodeNotFound, Message: "resource not found"}
	ErrOutOfStock              = &Error{Code: CodeOutOfStock, Message: "not enough stock"}
	ErrForbidden               = &Error{Code: CodeForbidden, Message: "not allowed"}
	ErrAlreadyCancelled        = &Error{Code: CodeAlreadyCancelled, Message: "order already cancelled"}
	ErrInvalidSpendingReversal = &Error{Code: CodeInvalidSpendingReversal, Message: "spending reversal below zero"}
	ErrInvalidArgument         = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrConflict                = &Error{Code: CodeConflict, Message: "conflict"}
	ErrStorage                 = &Error{Code: CodeStorage, Message: "storage failure"}
)

// Error is the single error type crossing the core boundary. Two errors
// match with errors.Is when their codes are equal.
type Error struct {
	Code    Code
	Message string

	cause error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Cause returns the underlying storage error, for logging only.
func (e *Error) Cause() error {
	return e.cause
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return newError(CodeNotFound, format, args...)
}

func OutOfStock(format string, args ...any) error {
	return newError(CodeOutOfStock, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newError(CodeForbidden, format, args...)
}

func InvalidArgument(format string, args ...any) error {
	return newError(CodeInvalidArgument, format, args...)
}

func Conflict(format string, args ...any) error {
	return newError(CodeConflict, format, args...)
}

// Storage hides a driver error behind ErrStorage. The original error stays
// reachable through Cause but not through errors.Unwrap.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Code: CodeStorage, Message: ErrStorage.Message, cause: err}
}

// CodeOf reports the code of the first *Error in err's chain, or
// CodeStorage for anything unrecognised.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeStorage
}
