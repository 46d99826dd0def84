// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"errors"
	"fmt"
)

// Error is a coded election error. Two Errors match under errors.Is when
// their codes are equal, so a detailed copy still matches its sentinel.
type Error struct {
	Code    string
	Message string
	Details string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error carrying details
func (e *Error) WithDetails(format string, args ...any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: fmt.Sprintf(format, args...),
		Cause:   e.Cause,
	}
}

// Wrap returns a copy of the error with cause attached
func (e *Error) Wrap(cause error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

var (
	// ErrBundle means the import archive could not be read or is structurally invalid.
	ErrBundle = &Error{Code: "BOOTH-BNDL-4000", Message: "invalid election bundle"}

	// ErrNotFound means no entity matches the requested id and kind.
	ErrNotFound = &Error{Code: "BOOTH-RES-4040", Message: "resource not found"}

	// ErrNotImported is an ErrNotFound for the election itself.
	ErrNotImported = ErrNotFound.WithDetails("no election imported")

	// ErrVote means a ballot selected more than one candidate in the same poll.
	ErrVote = &Error{Code: "BOOTH-VOTE-4000", Message: "at most one candidate may be selected per poll"}

	// ErrClosed is returned once the store has been shut down.
	ErrClosed = &Error{Code: "BOOTH-STORE-5030", Message: "election store closed"}
)

// Code extracts the error code, or "" when err is not an election error
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
