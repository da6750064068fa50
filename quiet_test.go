// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package closer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloseQuietly_nilResource(t *testing.T) {
	called := false

	CloseQuietly(nil, func(err error) {
		called = true
	})

	require.False(t, called)
}

func TestCloseQuietly_successDoesNotInvokeCallback(t *testing.T) {
	resource := &mockCloseable{}
	called := false

	CloseQuietly(resource, func(err error) {
		called = true
	})

	require.True(t, resource.closed)
	require.False(t, called)
}

func TestCloseQuietly_failureRoutedToCallback(t *testing.T) {
	boom := errors.New("boom")
	resource := failingCloseable(boom)

	var observed error
	CloseQuietly(resource, func(err error) {
		observed = err
	})

	require.True(t, resource.closed)
	require.Same(t, boom, observed)
}

func TestCloseQuietly_nilCallbackSwallowsFailure(t *testing.T) {
	resource := failingCloseable(errors.New("boom"))

	require.NotPanics(t, func() {
		CloseQuietly(resource, nil)
	})
	require.True(t, resource.closed)
}

func TestVoidFunc_adaptsVoidClose(t *testing.T) {
	called := false
	c := VoidFunc(func() {
		called = true
	})

	require.NoError(t, c.Close())
	require.True(t, called)
}

// mockShutdowner is a test helper that implements the Shutdowner interface.
type mockShutdowner struct {
	ctx         context.Context
	shutdownErr error
}

func (m *mockShutdowner) Shutdown(ctx context.Context) error {
	m.ctx = ctx
	return m.shutdownErr
}

func TestShutdownFunc_passesContextThrough(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")

	s := &mockShutdowner{}
	c := ShutdownFunc(ctx, s)

	require.NoError(t, c.Close())
	require.Equal(t, "marker", s.ctx.Value(ctxKey{}))
}

func TestShutdownFunc_propagatesShutdownFailure(t *testing.T) {
	boom := errors.New("boom")
	s := &mockShutdowner{shutdownErr: boom}

	guard := New()
	Register(guard, ShutdownFunc(context.Background(), s))

	require.Same(t, boom, guard.Close())
}
