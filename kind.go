// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package closer

import (
	"errors"
	"runtime"
)

// Kind identifies a declared failure kind. [Closer.Rethrow] and
// [Closer.CloseAs] accept an ordered list of kinds; a failure matching
// one of them propagates unchanged. A failure matching none of them,
// and not belonging to a category which always propagates unchanged
// (see [UncheckedError] and [runtime.Error]), is wrapped in an
// [UncheckedError] carrying the original failure as its cause.
//
// Supplying no kinds declares every failure: nothing is ever wrapped.
type Kind interface {
	Match(error) bool
}

// KindFunc is a func type of the [Kind] interface.
type KindFunc func(error) bool

// Match implements the [Kind] interface.
func (f KindFunc) Match(err error) bool {
	return f(err)
}

// Is returns a [Kind] which matches any error for which
// [errors.Is] reports a match with target.
func Is(target error) Kind {
	return KindFunc(func(err error) bool {
		return errors.Is(err, target)
	})
}

// As returns a [Kind] which matches any error for which [errors.As]
// finds an E in its tree.
func As[E error]() Kind {
	return KindFunc(func(err error) bool {
		var target E
		return errors.As(err, &target)
	})
}

// UncheckedError wraps a failure which did not match any of the kinds
// declared at the call site. Its message is the message of the wrapped
// failure and [UncheckedError.Unwrap] exposes the original, so neither
// errors.Is nor errors.As matching is lost by the wrapping.
type UncheckedError struct {
	cause error
}

// Error implements the error interface.
func (e *UncheckedError) Error() string {
	return e.cause.Error()
}

// Unwrap returns the wrapped failure.
func (e *UncheckedError) Unwrap() error {
	return e.cause
}

// classify applies the declared kind rule to err.
//
// With no kinds every failure is declared and err passes unchanged.
// With kinds, err passes unchanged if it matches one of them or if it
// already belongs to an undeclarable category. Anything else is wrapped.
func classify(err error, kinds []Kind) error {
	if len(kinds) == 0 {
		return err
	}

	for _, kind := range kinds {
		if kind != nil && kind.Match(err) {
			return err
		}
	}
	if passesUnchanged(err) {
		return err
	}
	return &UncheckedError{cause: err}
}

// passesUnchanged reports whether err belongs to a failure category
// which callers never declare and which is therefore never wrapped:
// failures already wrapped in an [UncheckedError] and Go runtime
// failures. The checks are on err itself, not its tree, so the
// identity of the propagated value is preserved.
func passesUnchanged(err error) bool {
	switch err.(type) {
	case *UncheckedError:
		return true
	case runtime.Error:
		return true
	}
	return false
}
