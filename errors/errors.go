// Package errors provides constant sentinel errors that can carry a cause.
//
// It shadows the standard library package so callers only need one import.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSeparator separates the sentinel message from its cause in a wrapped error message.
const ErrSeparator = " -- "

// Error is a string based error type allowing packages to declare const sentinel errors.
type Error string

func (s Error) Error() string {
	return string(s)
}

// Is reports whether target is this sentinel or a sentinel-wrapped error built from it.
func (s Error) Is(target error) bool {
	if target == nil {
		return false
	}
	return s.Error() == target.Error() || strings.HasPrefix(target.Error(), s.Error()+ErrSeparator)
}

// Wrap attaches err as the cause of this sentinel.
func (s Error) Wrap(err error) error {
	return wrappedError{cause: err, msg: string(s)}
}

// Wrapf attaches a formatted cause to this sentinel.
func (s Error) Wrapf(format string, args ...any) error {
	return wrappedError{cause: fmt.Errorf(format, args...), msg: string(s)}
}

type wrappedError struct {
	cause error
	msg   string
}

func (w wrappedError) Error() string {
	if w.cause != nil {
		return fmt.Sprintf("%s%s%v", w.msg, ErrSeparator, w.cause)
	}
	return w.msg
}

func (w wrappedError) Is(target error) bool {
	return Error(w.msg).Is(target)
}

func (w wrappedError) Unwrap() error {
	return w.cause
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns a new error with the specified message.
func New(message string) error {
	return errors.New(message)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
