package endpoint

import (
	"errors"
	"fmt"
)

// Code is the endpoint-independent classification of a failed call.
type Code int

const (
	CodeUnknown Code = iota + 1
	CodeInvalidArgs
	CodeInvalidSession
	CodeNotFound
	CodeAlreadyExists
	CodePermission
	CodeNotSupported
	CodeConnection
	CodeIO
)

func (c Code) String() string {
	switch c {
	case CodeInvalidArgs:
		return "invalid arguments"
	case CodeInvalidSession:
		return "invalid session"
	case CodeNotFound:
		return "not found"
	case CodeAlreadyExists:
		return "already exists"
	case CodePermission:
		return "permission denied"
	case CodeNotSupported:
		return "operation not supported"
	case CodeConnection:
		return "connection error"
	case CodeIO:
		return "I/O error"
	default:
		return "unknown error"
	}
}

// Status is the native status of a failed endpoint call: a classification
// code, the errno (or protocol status) reported by the endpoint and a
// message.
type Status struct {
	Code    Code
	Errno   int
	Message string
	Err     error
}

// NewStatus creates a Status wrapping cause.
func NewStatus(code Code, errno int, message string, cause error) *Status {
	return &Status{
		Code:    code,
		Errno:   errno,
		Message: message,
		Err:     cause,
	}
}

// Error implements the error interface.
func (s *Status) Error() string {
	msg := s.Code.String()
	if s.Message != "" {
		msg += ": " + s.Message
	}
	if s.Err != nil {
		msg += ": " + s.Err.Error()
	}
	return fmt.Sprintf("error '%s' (errno=%d, code=%d)", msg, s.Errno, int(s.Code))
}

// Unwrap returns the underlying cause.
func (s *Status) Unwrap() error {
	return s.Err
}

// StatusOf returns the first Status in err's chain, or nil.
func StatusOf(err error) *Status {
	var st *Status
	if errors.As(err, &st) {
		return st
	}
	return nil
}

// IsCode reports whether err carries a Status with the given code.
func IsCode(err error, code Code) bool {
	st := StatusOf(err)
	return st != nil && st.Code == code
}
