// Package fault defines the reportable failure family for dispatch.
// Every user-visible dispatch failure (normalization, binding,
// authorization, operation execution) is a *Error carrying a
// machine-checkable Kind. Anything outside this family is a defect and
// is never intercepted by the dispatch boundary.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a dispatch failure.
type Kind string

const (
	KindMissingFunction    Kind = "missing-function"
	KindUnknownFunction    Kind = "unknown-function"
	KindMissingArgument    Kind = "missing-argument"
	KindUnexpectedArgument Kind = "unexpected-argument"
	KindAuthorization      Kind = "authorization"
	KindExecution          Kind = "execution"
)

// Error is the single reportable failure type for dispatch.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a reportable failure.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a reportable failure around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// MissingFunction reports a request without a function name.
func MissingFunction() *Error {
	return New(KindMissingFunction, "request is missing the 'fun' key")
}

// UnknownFunction reports an operation name absent from the registry.
func UnknownFunction(name string) *Error {
	return New(KindUnknownFunction, "function %q is not available", name)
}

// MissingArgument reports a required parameter with no value.
func MissingArgument(fun, param string) *Error {
	return New(KindMissingArgument, "%s is missing required argument %q", fun, param)
}

// UnexpectedArgument reports a kwarg the operation does not declare.
func UnexpectedArgument(fun, param string) *Error {
	return New(KindUnexpectedArgument, "%s got an unexpected keyword argument %q", fun, param)
}

// Authorization reports a denied credential check.
func Authorization(reason string) *Error {
	return New(KindAuthorization, "authorization failed: %s", reason)
}

// Execution wraps a failure raised by operation code.
func Execution(fun string, err error) *Error {
	return Wrap(KindExecution, err, "%s failed", fun)
}

// IsFault reports whether err belongs to the reportable family,
// returning the typed error when it does.
func IsFault(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf returns the Kind of a family member, or "" for defects.
func KindOf(err error) Kind {
	if fe, ok := IsFault(err); ok {
		return fe.Kind
	}
	return ""
}
