// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

func serveHealth(ctx context.Context, addr string) error {
	mux := chi.NewMux()
	mux.Get("/health/liveness", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ls, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler: mux,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return server.Serve(ls)
	})
	eg.Go(func() error {
		<-egCtx.Done()

		return server.Shutdown(context.Background())
	})

	err = eg.Wait()
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
