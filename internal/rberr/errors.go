package rberr

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error type mapped to process exit codes.
type Code int

const (
	CodeSuccess     Code = 0
	CodeInternal    Code = 1
	CodeUsage       Code = 2
	CodeValidation  Code = 3
	CodeApproval    Code = 10
	CodeSubmit      Code = 11
	CodeOnChain     Code = 12
	CodeTimeout     Code = 13
	CodeUnavailable Code = 14
	CodeRateLimited Code = 15
)

// Error is a typed error that carries a stable error code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the error's code, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	if typed, ok := As(err); ok {
		return typed.Code
	}
	return CodeInternal
}

func ExitCode(err error) int {
	return int(CodeOf(err))
}

// Message returns the human-readable text of an error, preferring the typed
// message over the full cause chain.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if typed, ok := As(err); ok && typed.Message != "" {
		if typed.Cause != nil {
			return typed.Error()
		}
		return typed.Message
	}
	return err.Error()
}
