// Package apperr is the typed failure taxonomy shared by the rental and
// payment services. Controllers switch on Code(err); anything without a code is
// an infrastructure failure.
package apperr

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	NotFound     ErrCode = "NOT_FOUND"
	Validation   ErrCode = "VALIDATION"
	InvalidState ErrCode = "INVALID_STATE"
	Conflict     ErrCode = "CONFLICT"
	Gateway      ErrCode = "GATEWAY"
)

type Error struct {
	code ErrCode
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Code() ErrCode   { return e.code }
func (e *Error) Message() string { return e.msg }
func (e *Error) Unwrap() error   { return e.err }

func New(c ErrCode, format string, args ...any) error {
	return &Error{code: c, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an underlying cause.
func Wrap(c ErrCode, err error, format string, args ...any) error {
	return &Error{code: c, msg: fmt.Sprintf(format, args...), err: err}
}

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Message returns the caller-facing text of a coded error, or "" for
// uncoded ones.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return ""
}
