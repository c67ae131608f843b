package client

import (
	"errors"
	"fmt"
)

// ErrorCode classifies client failures.
type ErrorCode string

const (
	ErrorInvalidArgument  ErrorCode = "invalid_argument"
	ErrorEncodeFailed     ErrorCode = "encode_failed"
	ErrorRequestFailed    ErrorCode = "request_failed"
	ErrorUnexpectedStatus ErrorCode = "unexpected_status"
	ErrorDecodeFailed     ErrorCode = "decode_failed"
)

// Error is returned by every Client operation.
type Error struct {
	Code ErrorCode
	Op   string
	// Status is the HTTP status code, when a response was received.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (%s, HTTP %d): %v", e.Code, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Code, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapError(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

func newStatusError(op string, status int, body string) error {
	msg := "unexpected response status"
	if body != "" {
		msg += ": " + body
	}
	return &Error{Code: ErrorUnexpectedStatus, Op: op, Status: status, Err: errors.New(msg)}
}

// IsCode reports whether err (or any wrapped error) is a client Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var clientErr *Error
	return errors.As(err, &clientErr) && clientErr.Code == code
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var clientErr *Error
	if errors.As(err, &clientErr) {
		return clientErr.Status
	}
	return 0
}
