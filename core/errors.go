package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ClientError is a domain error caused by the request itself (eg: not enrolled).
// it is reported to the caller as-is and is never retried.
type ClientError struct {
	msg string
}

func NewClientError(msg string) error {
	return &ClientError{msg: msg}
}

func (err ClientError) Error() string {
	return err.msg
}

// IsClientError reports whether the root cause of err is a ClientError.
func IsClientError(err error) bool {
	_, ok := errors.Cause(err).(*ClientError)
	return ok
}

// NotFoundError is a ClientError about a missing resource.
type NotFoundError struct {
	msg string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{msg: msg}
}

func (err NotFoundError) Error() string {
	return err.msg
}

// IsNotFound reports whether the root cause of err is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
