// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package closer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type timeoutError struct {
	op string
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("%s timed out", e.op)
}

func newRuntimeError(t *testing.T) error {
	t.Helper()

	var rerr error
	func() {
		defer func() {
			var ok bool
			rerr, ok = recover().(error)
			require.True(t, ok)
		}()

		var m map[string]int
		m["x"] = 1
	}()
	return rerr
}

func TestIs_matchesWrappedSentinel(t *testing.T) {
	sentinel := errors.New("not found")
	kind := Is(sentinel)

	require.True(t, kind.Match(sentinel))
	require.True(t, kind.Match(fmt.Errorf("lookup failed: %w", sentinel)))
	require.False(t, kind.Match(errors.New("not found")))
}

func TestAs_matchesErrorType(t *testing.T) {
	kind := As[*timeoutError]()

	require.True(t, kind.Match(&timeoutError{op: "read"}))
	require.True(t, kind.Match(fmt.Errorf("request failed: %w", &timeoutError{op: "dial"})))
	require.False(t, kind.Match(errors.New("read timed out")))
}

func TestRethrow_withoutDeclaredKindsPassesUnchanged(t *testing.T) {
	guard := New()
	boom := errors.New("boom")

	require.Same(t, boom, guard.Rethrow(boom))
	require.NoError(t, guard.Close())
}

func TestRethrow_declaredKindPassesUnchanged(t *testing.T) {
	guard := New()
	terr := &timeoutError{op: "write"}

	err := guard.Rethrow(terr, Is(errors.New("other")), As[*timeoutError]())
	require.Same(t, terr, err)

	require.Same(t, terr, guard.Close())
}

func TestRethrow_undeclaredFailureIsWrapped(t *testing.T) {
	guard := New()
	sentinel := errors.New("declared")
	boom := errors.New("boom")

	err := guard.Rethrow(boom, Is(sentinel))

	var unchecked *UncheckedError
	require.ErrorAs(t, err, &unchecked)
	require.Same(t, boom, unchecked.Unwrap())
	require.EqualError(t, err, "boom")

	// The wrapped failure remains matchable through the wrapper.
	require.ErrorIs(t, err, boom)
}

func TestRethrow_uncheckedErrorNeverWrapped(t *testing.T) {
	guard := New()
	unchecked := &UncheckedError{cause: errors.New("boom")}

	err := guard.Rethrow(unchecked, Is(errors.New("declared")))
	require.Same(t, unchecked, err)
}

func TestRethrow_runtimeErrorNeverWrapped(t *testing.T) {
	guard := New()
	rerr := newRuntimeError(t)

	err := guard.Rethrow(rerr, Is(errors.New("declared")))
	require.Same(t, rerr, err)
}

func TestCloseAs_declaredKindAppliedToCloseFailure(t *testing.T) {
	guard := New()
	terr := &timeoutError{op: "flush"}
	Register(guard, failingCloseable(terr))

	err := guard.CloseAs(As[*timeoutError]())
	require.Same(t, terr, err)
}

func TestCloseAs_undeclaredCloseFailureIsWrapped(t *testing.T) {
	guard := New()
	boom := errors.New("boom")
	Register(guard, failingCloseable(boom))

	err := guard.CloseAs(As[*timeoutError]())

	var unchecked *UncheckedError
	require.ErrorAs(t, err, &unchecked)
	require.Same(t, boom, unchecked.Unwrap())
}

func TestCloseAs_recordedFailureIsNotReclassified(t *testing.T) {
	guard := New()
	boom := errors.New("boom")

	// Recorded with no declared kinds so it is committed as is. The
	// kinds supplied at close time must not rewrap it.
	require.Same(t, boom, guard.Rethrow(boom))

	err := guard.CloseAs(As[*timeoutError]())
	require.Same(t, boom, err)
}

func TestKindFunc_nilKindIsIgnored(t *testing.T) {
	guard := New()
	boom := errors.New("boom")

	err := guard.Rethrow(boom, nil, Is(boom))
	require.Same(t, boom, err)
}
