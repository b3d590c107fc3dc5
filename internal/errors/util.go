package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type stackTracer interface {
	ErrorStack() string
}

// ErrorStack returns the stacks found in err's tree, one per wrapped error.
func ErrorStack(err error) string {
	var stacks []string

	walk(err, func(err error) {
		if tracer, ok := err.(stackTracer); ok {
			stacks = append(stacks, tracer.ErrorStack())
		}
	})

	return strings.Join(stacks, "\n")
}

// ContainsStackTrace reports whether any error in err's tree carries a stack.
func ContainsStackTrace(err error) bool {
	found := false

	walk(err, func(err error) {
		if _, ok := err.(stackTracer); ok {
			found = true
		}
	})

	return found
}

// IsContextCanceled reports whether err comes from a cancelled context.
func IsContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Recover turns a panic into an error passed to onPanic. It must be deferred.
func Recover(onPanic func(cause error)) {
	if rec := recover(); rec != nil {
		err, isError := rec.(error)
		if !isError {
			err = fmt.Errorf("%v", rec) //nolint:err113
		}

		onPanic(New(err))
	}
}

// walk calls fn for err and every error it wraps, following both Unwrap forms.
func walk(err error, fn func(err error)) {
	for err != nil {
		fn(err)

		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			for _, inner := range multi.Unwrap() {
				walk(inner, fn)
			}

			return
		}

		err = errors.Unwrap(err)
	}
}
