// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package closer

import (
	"context"
	"io"
)

// CloseFunc is a func type of the [io.Closer] interface.
type CloseFunc func() error

// Close implements the [io.Closer] interface.
func (f CloseFunc) Close() error {
	return f()
}

// VoidFunc adapts a close function with no error, such as
// pgxpool.Pool.Close or kgo.Client.Close, into an [io.Closer].
func VoidFunc(f func()) CloseFunc {
	return func() error {
		f()
		return nil
	}
}

// Shutdowner is the graceful shutdown signature shared by, among
// others, the OpenTelemetry SDK providers and net/http.Server.
type Shutdowner interface {
	Shutdown(context.Context) error
}

// ShutdownFunc adapts a [Shutdowner] into an [io.Closer]. The given
// context is the one passed to Shutdown when the resource is closed, so
// it should usually carry the deadline the caller is willing to wait
// for teardown, not a request scoped context.
func ShutdownFunc(ctx context.Context, s Shutdowner) CloseFunc {
	return func() error {
		return s.Shutdown(ctx)
	}
}

// CloseQuietly closes the given resource and routes any failure to
// onError instead of returning it. onError is not invoked if the
// resource is nil or closes without failure.
//
// CloseQuietly is meant for teardown paths where a close failure is
// worth logging but must not displace the failure already being
// propagated:
//
//	defer closer.CloseQuietly(f, func(err error) {
//		log.Warn("failed to close file", slog.Any("error", err))
//	})
func CloseQuietly(c io.Closer, onError func(error)) {
	if c == nil {
		return
	}

	err := c.Close()
	if err == nil {
		return
	}
	if onError != nil {
		onError(err)
	}
}
