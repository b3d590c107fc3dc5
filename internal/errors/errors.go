// Package errors attaches stack traces to errors and aggregates them.
//
// Errors created here carry the stack of their first wrap; wrapping an error that already has a
// stack keeps the original one.
package errors

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// New wraps val, an error or a message, with the caller's stack.
func New(val any) error {
	if val == nil {
		return nil
	}

	if err, ok := val.(error); ok && ContainsStackTrace(err) {
		return err
	}

	return goerrors.Wrap(val, 1)
}

// Errorf formats an error. A stack is attached unless one of the %w arguments already has one.
func Errorf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)

	for _, arg := range args {
		if arg, ok := arg.(error); ok && ContainsStackTrace(arg) {
			return err
		}
	}

	return goerrors.Wrap(err, 1)
}

// WithPrefix prepends a formatted prefix to err's message. A nil err stays nil.
func WithPrefix(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return goerrors.WrapPrefix(err, fmt.Sprintf(format, args...), 1)
}
