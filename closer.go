// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package closer coordinates closing a dynamic set of resources.
//
// A [Closer] collects [io.Closer]s as they are acquired during a unit of
// work and closes all of them, in reverse registration order, when the
// unit of work ends. Every registered resource is given a close attempt
// even if earlier closes fail. Exactly one failure is surfaced to the
// caller; all other failures encountered while closing are retained, in
// the order they occurred, and can be inspected with [Closer.Suppressed].
//
// The intended usage pattern is:
//
//	func copyObject(ctx context.Context) (err error) {
//		guard := closer.New()
//		defer guard.CloseOnExit(&err)
//
//		src := closer.Register(guard, mustOpen(ctx))
//		dst := closer.Register(guard, mustCreate(ctx))
//
//		_, err = io.Copy(dst, src)
//		return err
//	}
//
// A failure returned before the deferred close runs always wins over any
// failure raised while closing resources; the close time failures are
// attached to it as suppressed entries instead of replacing it.
package closer

import (
	"errors"
	"io"
)

// ErrAlreadyClosed is the value [Register] panics with when called after
// the [Closer] has been closed.
var ErrAlreadyClosed = errors.New("closer: already closed")

// ErrNilError is the value [Closer.Rethrow] panics with when called with
// a nil error.
var ErrNilError = errors.New("closer: nil error")

// Closer collects resources and closes all of them when it is closed.
//
// The zero value is ready to use. A Closer is meant to be owned by a
// single goroutine for the duration of one unit of work; it performs no
// internal synchronization and must not be shared across concurrent
// units of work.
type Closer struct {
	stack      []io.Closer
	thrown     error
	suppressed []error
	closed     bool
}

// New returns an empty [Closer].
func New() *Closer {
	return &Closer{}
}

// Register records the given resource to be closed when c is closed.
// Resources are closed in reverse registration order.
//
// The resource is returned unchanged so call sites can register and
// assign in a single expression:
//
//	f := closer.Register(guard, open())
//
// A nil resource is accepted as a no-op and returned as is. Register
// panics with [ErrAlreadyClosed] if c has already been closed; the
// closed check happens before the nil check.
func Register[C io.Closer](c *Closer, resource C) C {
	if c.closed {
		panic(ErrAlreadyClosed)
	}

	if any(resource) != nil {
		c.stack = append(c.stack, resource)
	}
	return resource
}

// Rethrow records err as the failure for this unit of work and returns
// it, classified against the given kinds (see [Kind]). The first
// recorded failure wins; it is the failure [Closer.Close] will surface
// even if resources also fail while closing. Later calls still classify
// and return their argument but do not displace the recorded failure.
//
// Rethrow never returns nil. Call it as the final expression of an
// error path so the recorded failure and the propagated failure are the
// same value:
//
//	if err != nil {
//		return guard.Rethrow(err)
//	}
//
// Rethrow panics with [ErrNilError] if err is nil. That is a usage
// error and it surfaces before any state is mutated.
func (c *Closer) Rethrow(err error, kinds ...Kind) error {
	if err == nil {
		panic(ErrNilError)
	}

	classified := classify(err, kinds)
	if c.thrown == nil && !c.closed {
		c.thrown = classified
	}
	return classified
}

// Close closes every registered resource in reverse registration order
// and implements [io.Closer]. It is equivalent to CloseAs with no
// declared kinds.
func (c *Closer) Close() error {
	return c.CloseAs()
}

// CloseAs closes every registered resource in reverse registration
// order. Every resource is given a close attempt; a failure from one
// resource never prevents closing the next.
//
// If a failure was recorded with [Closer.Rethrow] before CloseAs runs,
// that failure is returned exactly as recorded and every close time
// failure is attached to the suppressed list. Otherwise the first close
// time failure, classified against the given kinds, is returned and the
// remaining failures are suppressed in the order they occurred.
//
// CloseAs only closes resources on its first invocation. Subsequent
// calls return nil without any effect.
func (c *Closer) CloseAs(kinds ...Kind) error {
	if c.closed {
		return nil
	}
	c.closed = true

	primary := c.thrown
	for i := len(c.stack) - 1; i >= 0; i-- {
		err := c.stack[i].Close()
		if err == nil {
			continue
		}
		if primary == nil {
			primary = err
			continue
		}
		c.suppressed = append(c.suppressed, err)
	}
	c.stack = nil

	if c.thrown != nil {
		return c.thrown
	}
	if primary != nil {
		return classify(primary, kinds)
	}
	return nil
}

// CloseOnExit closes c and stores the surfaced failure, if any, into
// err. It is meant to be deferred with a named return value so the
// resources are closed on every exit path:
//
//	func do() (err error) {
//		guard := closer.New()
//		defer guard.CloseOnExit(&err)
//		...
//	}
//
// If *err is non-nil when CloseOnExit runs and no failure was recorded
// yet, *err is recorded as the primary failure first. It is already
// propagating out of the caller so it is not reclassified; close time
// failures are attached to it as suppressed entries. Note that a
// function exiting with a nil error can still return a failure if
// closing a resource fails.
func (c *Closer) CloseOnExit(err *error, kinds ...Kind) {
	if *err != nil && c.thrown == nil && !c.closed {
		c.thrown = *err
	}

	cerr := c.CloseAs(kinds...)
	if cerr != nil {
		*err = cerr
	}
}

// Suppressed returns the failures which were encountered while closing
// resources but were not surfaced as the primary failure, in the order
// they occurred. The returned slice is a copy.
func (c *Closer) Suppressed() []error {
	if len(c.suppressed) == 0 {
		return nil
	}

	errs := make([]error, len(c.suppressed))
	copy(errs, c.suppressed)
	return errs
}
